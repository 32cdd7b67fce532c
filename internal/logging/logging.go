// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup sets the level and output format of the standard logger.
// Format is "text" or "json".
func Setup(level, format string) error {
	return configure(log.StandardLogger(), os.Stderr, level, format)
}

// New returns a logger writing to w, for tools and tests that should not
// touch the standard logger.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	l := log.New()
	if err := configure(l, w, level, format); err != nil {
		return nil, err
	}
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func configure(l *log.Logger, w io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	l.SetOutput(w)
	l.SetLevel(lvl)
	return nil
}
