package bridge

import "errors"

// Sentinel errors for the bridge package.
var (
	// ErrClosed is returned when operations are attempted on a closed bridge.
	ErrClosed = errors.New("bridge is closed")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("bridge already started")
)
