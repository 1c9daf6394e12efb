package grid

import "errors"

// Sentinel errors for the grid package.
var (
	// ErrInvalidSize is returned when a grid is created with non-positive dimensions.
	ErrInvalidSize = errors.New("invalid grid size")

	// ErrInvalidGutter is returned when the gutter is negative or wider than the grid.
	ErrInvalidGutter = errors.New("invalid gutter width")

	// ErrGutterNotNumeric is returned when the gutter of row 0 does not hold a line number.
	ErrGutterNotNumeric = errors.New("gutter does not contain a line number")
)
