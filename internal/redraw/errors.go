package redraw

import (
	"errors"
	"fmt"
)

// Sentinel errors for the redraw package.
var (
	// ErrBadEntry is returned when a batch entry is not a [name, args...] sequence.
	ErrBadEntry = errors.New("malformed redraw entry")

	// ErrBadArguments is returned when an argument tuple has the wrong shape.
	ErrBadArguments = errors.New("malformed redraw arguments")
)

// ArgError reports an argument tuple that could not be decoded.
// The tuple is skipped; the rest of the batch still applies.
type ArgError struct {
	Op    string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ArgError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Op, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArgError) Unwrap() error {
	return e.Err
}
