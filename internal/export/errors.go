package export

import (
	"errors"
	"fmt"
)

// ErrEmptyQueue matches EmptyQueueError with errors.Is.
var ErrEmptyQueue = errors.New("queue is empty")

// EmptyQueueError is returned when there is nothing to export.
type EmptyQueueError struct{}

func (e *EmptyQueueError) Error() string { return "nothing to export: queue is empty" }

// Is makes errors.Is(err, ErrEmptyQueue) succeed.
func (e *EmptyQueueError) Is(target error) bool { return target == ErrEmptyQueue }

// DecodeError reports an entry that could not be read or decoded.
type DecodeError struct {
	Index int
	Path  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot read image %q (entry %d): %v", e.Path, e.Index+1, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a format tag outside the supported set.
type UnsupportedFormatError struct {
	Tag string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q (must be one of: jpg, gif, pdf)", e.Tag)
}

// WriteError reports a failure to encode or store the output.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot write output: %v", e.Err)
	}
	return fmt.Sprintf("cannot write %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ErrorType returns a stable machine-readable name for an export error.
func ErrorType(err error) string {
	var (
		decodeErr *DecodeError
		formatErr *UnsupportedFormatError
		writeErr  *WriteError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQueue):
		return "empty_queue"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &formatErr):
		return "unsupported_format"
	case errors.As(err, &writeErr):
		return "write_error"
	default:
		return "internal_error"
	}
}
