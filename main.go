// Package main provides the entry point for seedsynth, which turns a seed
// file and its source photo into labelled synthetic training images.
package main

import (
	"fmt"
	"os"

	"seed-synth/internal/config"
	"seed-synth/internal/logging"
	"seed-synth/internal/synth"
	"seed-synth/internal/version"

	"github.com/sfomuseum/go-flags/flagset"
	log "github.com/sirupsen/logrus"
)

// envPrefix is the prefix of environment variables that override flags,
// e.g. SEEDSYNTH_MAX_OVERLAP.
const envPrefix = "SEEDSYNTH"

func main() {
	fs := flagset.NewFlagSet("seedsynth")
	flags := config.BindFlags(fs)

	var showVersion bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	flagset.Parse(fs)

	if showVersion {
		fmt.Println(version.String())
		return
	}

	if err := flags.ApplyEnv(envPrefix, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read environment: %v\n", err)
		os.Exit(1)
	}

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.SeedFile == "" || cfg.Image == "" {
		fmt.Println("Usage: seedsynth -seeds <file.tbin> -image <photo> [-out dir] [-count n] [-seed n] [-config run.yaml]")
		os.Exit(1)
	}

	m, err := synth.New(cfg, log.StandardLogger()).Run()
	if err != nil {
		log.WithError(err).Error("Synthesis failed")
		os.Exit(1)
	}

	log.WithFields(log.Fields{
		"samples": len(m.Samples),
		"placed":  m.Placed(),
		"seed":    m.Seed,
		"out":     cfg.OutputDir,
	}).Info("Done")
}
