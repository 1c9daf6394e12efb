package grid

// Cell represents a single position in the grid.
// The zero value is the empty sentinel.
type Cell struct {
	glyph string
	set   bool
}

// Empty is the sentinel for an unset or cleared cell.
var Empty = Cell{}

// Glyph returns a cell holding text.
func Glyph(text string) Cell {
	return Cell{glyph: text, set: true}
}

// IsEmpty returns true if the cell is unset or cleared.
func (c Cell) IsEmpty() bool {
	return !c.set
}

// Text returns the glyph, or "" for an empty cell.
func (c Cell) Text() string {
	return c.glyph
}

// Snapshot is an immutable copy of the grid's cells and cursor.
type Snapshot struct {
	Rows   int
	Cols   int
	Cursor Position

	cells []Cell
}

// Cell returns the cell at the given position, or Empty if out of bounds.
func (s Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return Empty
	}
	return s.cells[row*s.Cols+col]
}

// Point identifies a grid position attached to change events.
type Point struct {
	Row    int
	Column int
}

// Position is the mutable cursor location.
type Position struct {
	Row int
	Col int
}

// Region is a rectangle with inclusive bounds.
type Region struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Height returns the number of rows in the region.
func (r Region) Height() int {
	return r.Bottom - r.Top + 1
}

// ChangeKind identifies the operation that produced a Change.
type ChangeKind int

const (
	// ChangePut is emitted after a glyph is written.
	ChangePut ChangeKind = iota
	// ChangeEOLClear is emitted after a row is cleared from the cursor to its end.
	ChangeEOLClear
	// ChangeFinish marks the end of one consistent frame.
	ChangeFinish
)

// String returns a human-readable kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangePut:
		return "put"
	case ChangeEOLClear:
		return "eol_clear"
	case ChangeFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Change describes a mutation for downstream renderers.
//
// For ChangePut, Text is the written glyph and Columns spans the single
// written column. For ChangeEOLClear, Columns spans the cleared range.
// ChangeFinish carries no payload.
type Change struct {
	Kind    ChangeKind
	At      Point
	Text    string
	Columns [2]int
}

// Listener receives change events.
type Listener func(Change)
