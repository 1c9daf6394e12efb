// Package grid mirrors the screen of a remote editor as a fixed-size cell grid.
//
// The grid is mutated only through the primitive redraw operations the
// editor sends (cursor moves, puts, clears and scrolls). Readers query row
// text and subscribe to change events to learn where mutations happened.
//
// # Cells
//
// Every position holds a Cell. The zero Cell is the empty sentinel: a cell
// that was never written or has been cleared. A cell written with an empty
// glyph (the editor does this for the trailing half of a wide character) is
// not empty; it renders as nothing but still counts as content.
//
// # Coordinates
//
// Rows and columns are zero based. The editor is trusted to send in-range
// coordinates; writes that would land outside the grid are dropped rather
// than wrapping into a neighbouring row.
//
// # Thread Safety
//
// Grid is safe for concurrent use. Change listeners are invoked after the
// grid lock is released, so they may query the grid.
package grid
