package nvim

import "errors"

// Sentinel errors for the nvim package.
var (
	// ErrNotConnected is returned when the session has been closed.
	ErrNotConnected = errors.New("editor not connected")

	// ErrNoEditor is returned when neither a path nor a socket is configured.
	ErrNoEditor = errors.New("no editor path or socket configured")
)
