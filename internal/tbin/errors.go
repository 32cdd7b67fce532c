package tbin

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned when the reader is positioned exactly at the end
// of the buffer. It marks normal termination, not a data error.
var ErrEndOfStream = errors.New("end of seed stream")

// ErrMalformedRecord is matched by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed seed record")

// MalformedRecordError reports a structurally invalid record and where it starts.
type MalformedRecordError struct {
	Offset int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed seed record at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedRecordError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
