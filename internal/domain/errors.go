package domain

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced by the pipeline. Wrap them with %w so callers can
// classify failures with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = fmt.Errorf("%w: not found", ErrInvalidInput)
	ErrNetwork      = errors.New("network error")
	ErrIO           = errors.New("io error")
	ErrStream       = errors.New("stream error")
	ErrTranscode    = errors.New("transcode error")
)

// ErrorKind is the persisted classification of a failed job
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindInvalidInput ErrorKind = "invalid_input"
	KindNotFound     ErrorKind = "not_found"
	KindNetwork      ErrorKind = "network"
	KindIO           ErrorKind = "io"
	KindStream       ErrorKind = "stream"
	KindTranscode    ErrorKind = "transcode"
	KindCancelled    ErrorKind = "cancelled"
	KindUnknown      ErrorKind = "unknown"
)

// KindOf classifies err. Cancellation wins over the stage kind it is wrapped
// in, and ErrNotFound is checked before ErrInvalidInput since it wraps it.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrTranscode):
		return KindTranscode
	case errors.Is(err, ErrStream):
		return KindStream
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// StageError labels a failure with the pipeline stage that produced it
type StageError struct {
	Stage JobStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TranscodeError carries the media engine's diagnostic output
type TranscodeError struct {
	Diagnostic string
	Err        error
}

func (e *TranscodeError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("%v: %v", ErrTranscode, e.Err)
	}
	return fmt.Sprintf("%v: %v: %s", ErrTranscode, e.Err, e.Diagnostic)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// Is reports ErrTranscode as a match so errors.Is works through the wrapper
func (e *TranscodeError) Is(target error) bool {
	return target == ErrTranscode
}
