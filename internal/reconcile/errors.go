package reconcile

import "errors"

// Sentinel errors for the reconcile package.
var (
	// ErrStopped is returned when operations are attempted on a stopped coordinator.
	ErrStopped = errors.New("reconcile coordinator is stopped")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("reconcile coordinator already started")

	// ErrMissingWindowID is returned for a window the editor could not identify.
	ErrMissingWindowID = errors.New("window has no identifier")
)
