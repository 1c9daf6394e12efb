package grid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, rows, cols, gutter int) *Grid {
	t.Helper()
	g, err := New(rows, cols, gutter)
	require.NoError(t, err)
	return g
}

// fill writes one letter per cell, the letter chosen by row.
func fill(g *Grid) {
	rows, cols := g.Size()
	for r := 0; r < rows; r++ {
		g.CursorGoto(r, 0)
		for c := 0; c < cols; c++ {
			g.Put(string(rune('a' + r)))
		}
	}
}

// setRow writes the given cells into row starting at column 0. An empty
// string in cells leaves the cell empty.
func setRow(g *Grid, row int, cells ...string) {
	for col, text := range cells {
		if text == "" {
			g.ClearRegion(row, row, col, col)
			continue
		}
		g.CursorGoto(row, col)
		g.Put(text)
	}
}

func snapshot(g *Grid) [][]Cell {
	rows, cols := g.Size()
	out := make([][]Cell, rows)
	for r := range out {
		out[r] = make([]Cell, cols)
		for c := range out[r] {
			out[r][c] = g.Cell(r, c)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	g := newTestGrid(t, 24, 80, 6)

	rows, cols := g.Size()
	assert.Equal(t, 24, rows)
	assert.Equal(t, 80, cols)
	assert.Equal(t, Position{}, g.Cursor())
	assert.Equal(t, Region{Top: 0, Bottom: 23, Left: 0, Right: 79}, g.Region())

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			require.True(t, g.Cell(r, c).IsEmpty())
		}
	}
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0, 80, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(24, 4, 6)
	assert.ErrorIs(t, err, ErrInvalidGutter)

	_, err = New(24, 80, -1)
	assert.ErrorIs(t, err, ErrInvalidGutter)
}

func TestGrid_Put(t *testing.T) {
	g := newTestGrid(t, 5, 10, 0)

	g.CursorGoto(2, 3)
	g.Put("x")

	assert.Equal(t, "x", g.Cell(2, 3).Text())
	assert.Equal(t, Position{Row: 2, Col: 4}, g.Cursor())
}

func TestGrid_PutContiguousRun(t *testing.T) {
	g := newTestGrid(t, 5, 10, 0)

	g.CursorGoto(1, 2)
	for _, r := range "hello" {
		g.Put(string(r))
	}

	assert.Equal(t, "  hello", g.RowText(1, 0, 10))
	assert.Equal(t, Position{Row: 1, Col: 7}, g.Cursor())
}

func TestGrid_PutPastLastColumn(t *testing.T) {
	g := newTestGrid(t, 2, 3, 0)

	g.CursorGoto(0, 2)
	g.Put("a")
	g.Put("b") // cursor is at column 3, outside the grid

	assert.Equal(t, Position{Row: 0, Col: 4}, g.Cursor())
	assert.True(t, g.Cell(1, 0).IsEmpty(), "write must not wrap into the next row")
}

func TestGrid_PutEmptyGlyph(t *testing.T) {
	g := newTestGrid(t, 1, 4, 0)

	g.Put("界")
	g.Put("")
	g.Put("x")

	assert.False(t, g.Cell(0, 1).IsEmpty())
	assert.Equal(t, "界x", g.RowText(0, 0, 4))
}

func TestGrid_EOLClear(t *testing.T) {
	g := newTestGrid(t, 5, 10, 0)
	fill(g)

	g.CursorGoto(2, 5)
	g.EOLClear()

	for c := 0; c < 10; c++ {
		if c < 5 {
			assert.Equal(t, "c", g.Cell(2, c).Text(), "col %d", c)
		} else {
			assert.True(t, g.Cell(2, c).IsEmpty(), "col %d", c)
		}
	}
	for _, r := range []int{1, 3} {
		assert.Equal(t, strings.Repeat(string(rune('a'+r)), 10), g.RowText(r, 0, 10))
	}
}

func TestGrid_ClearRegion(t *testing.T) {
	g := newTestGrid(t, 6, 8, 0)
	fill(g)
	before := snapshot(g)

	g.ClearRegion(1, 3, 2, 5)

	after := snapshot(g)
	for r := range after {
		for c := range after[r] {
			inside := r >= 1 && r <= 3 && c >= 2 && c <= 5
			if inside {
				assert.True(t, after[r][c].IsEmpty(), "(%d,%d)", r, c)
			} else {
				assert.Equal(t, before[r][c], after[r][c], "(%d,%d)", r, c)
			}
		}
	}
}

func TestGrid_ClearUsesScrollRegion(t *testing.T) {
	g := newTestGrid(t, 4, 4, 0)
	fill(g)

	g.SetScrollRegion(1, 2, 1, 2)
	g.Clear()

	assert.Equal(t, "aaaa", g.RowText(0, 0, 4))
	assert.Equal(t, "b  b", g.RowText(1, 0, 4))
	assert.Equal(t, "c  c", g.RowText(2, 0, 4))
	assert.Equal(t, "dddd", g.RowText(3, 0, 4))
}

func TestGrid_ScrollUp(t *testing.T) {
	g := newTestGrid(t, 5, 12, 0)
	fill(g)
	before := snapshot(g)

	g.SetScrollRegion(0, 4, 0, 9)
	g.Scroll(2)

	after := snapshot(g)
	for r := 0; r < 5; r++ {
		for c := 0; c < 12; c++ {
			switch {
			case c > 9:
				assert.Equal(t, before[r][c], after[r][c], "outside region (%d,%d)", r, c)
			case r <= 2:
				assert.Equal(t, before[r+2][c], after[r][c], "(%d,%d)", r, c)
			default:
				assert.True(t, after[r][c].IsEmpty(), "(%d,%d)", r, c)
			}
		}
	}
	assert.Equal(t, "cccccccccc", g.RowText(0, 0, 10))
}

func TestGrid_ScrollDown(t *testing.T) {
	g := newTestGrid(t, 5, 12, 0)
	fill(g)
	before := snapshot(g)

	g.SetScrollRegion(0, 4, 0, 9)
	g.Scroll(-2)

	after := snapshot(g)
	for r := 0; r < 5; r++ {
		for c := 0; c < 12; c++ {
			switch {
			case c > 9:
				assert.Equal(t, before[r][c], after[r][c], "outside region (%d,%d)", r, c)
			case r >= 2:
				assert.Equal(t, before[r-2][c], after[r][c], "(%d,%d)", r, c)
			default:
				assert.True(t, after[r][c].IsEmpty(), "(%d,%d)", r, c)
			}
		}
	}
	assert.Equal(t, "cccccccccc", g.RowText(4, 0, 10))
}

func TestGrid_ScrollInnerRegion(t *testing.T) {
	g := newTestGrid(t, 6, 4, 0)
	fill(g)

	g.SetScrollRegion(1, 4, 0, 3)
	g.Scroll(1)

	assert.Equal(t, "aaaa", g.RowText(0, 0, 4))
	assert.Equal(t, "cccc", g.RowText(1, 0, 4))
	assert.Equal(t, "dddd", g.RowText(2, 0, 4))
	assert.Equal(t, "eeee", g.RowText(3, 0, 4))
	assert.Equal(t, "", g.RowText(4, 0, 4))
	assert.Equal(t, "ffff", g.RowText(5, 0, 4))
}

func TestGrid_ScrollWholeRegion(t *testing.T) {
	g := newTestGrid(t, 3, 3, 0)
	fill(g)

	g.Scroll(5)

	assert.Equal(t, strings.Repeat(" ", 3)+"\n"+strings.Repeat(" ", 3)+"\n"+strings.Repeat(" ", 3), g.Text())
}

func TestGrid_ScrollZero(t *testing.T) {
	g := newTestGrid(t, 3, 3, 0)
	fill(g)
	before := snapshot(g)

	g.Scroll(0)

	assert.Equal(t, before, snapshot(g))
}

func TestGrid_RowText(t *testing.T) {
	g := newTestGrid(t, 2, 6, 0)

	setRow(g, 0, "a", "", "b", "", "", "")
	assert.Equal(t, "a b", g.RowText(0, 0, 6))

	setRow(g, 1, "a", "", "b")
	assert.Equal(t, "a b", g.RowText(1, 0, 3))
}

func TestGrid_RowTextKeepsRunBeforeLaterContent(t *testing.T) {
	g := newTestGrid(t, 1, 8, 0)
	setRow(g, 0, "a", "", "", "", "", "z")

	// The range ends inside the gap; content after it means the gap is real.
	assert.Equal(t, "a  ", g.RowText(0, 0, 3))
	assert.Equal(t, "a    z", g.RowText(0, 0, 8))
}

func TestGrid_RowTextSubRange(t *testing.T) {
	g := newTestGrid(t, 1, 10, 0)
	g.CursorGoto(0, 0)
	for _, r := range "  42 text" {
		g.Put(string(r))
	}

	assert.Equal(t, "text", g.RowText(0, 5, 10))
	assert.Equal(t, "", g.RowText(3, 0, 10))
}

func TestGrid_OffsetLine(t *testing.T) {
	g := newTestGrid(t, 3, 20, 6)
	setRow(g, 0, "0", "0", "4", "", "", " ")

	offset, err := g.OffsetLine()
	require.NoError(t, err)
	assert.Equal(t, 3, offset)
}

func TestGrid_OffsetLineRightAligned(t *testing.T) {
	g := newTestGrid(t, 3, 20, 6)
	setRow(g, 0, " ", " ", "1", "2", " ", "x")

	_, err := g.OffsetLine()
	assert.ErrorIs(t, err, ErrGutterNotNumeric)

	setRow(g, 0, " ", " ", "1", "2", " ", " ")
	offset, err := g.OffsetLine()
	require.NoError(t, err)
	assert.Equal(t, 11, offset)
}

func TestGrid_OffsetLineEmptyGutter(t *testing.T) {
	g := newTestGrid(t, 3, 20, 6)

	_, err := g.OffsetLine()
	assert.ErrorIs(t, err, ErrGutterNotNumeric)

	_, err = g.BufferCursor()
	assert.ErrorIs(t, err, ErrGutterNotNumeric)
}

func TestGrid_BufferCursor(t *testing.T) {
	g := newTestGrid(t, 5, 20, 6)
	setRow(g, 0, " ", " ", " ", "1", "0", " ")

	g.CursorGoto(2, 9)
	pos, err := g.BufferCursor()
	require.NoError(t, err)
	assert.Equal(t, Position{Row: 11, Col: 3}, pos)
}

func TestGrid_Text(t *testing.T) {
	g := newTestGrid(t, 2, 3, 0)
	g.Put("a")
	g.CursorGoto(1, 2)
	g.Put("b")

	assert.Equal(t, "a  \n  b", g.Text())
}

func TestGrid_ChangeEvents(t *testing.T) {
	g := newTestGrid(t, 3, 5, 0)

	var changes []Change
	cancel := g.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	g.CursorGoto(1, 2)
	g.Put("q")
	g.EOLClear()
	g.ClearRegion(0, 0, 0, 4)
	g.Scroll(1)
	g.RedrawFinish()

	require.Len(t, changes, 3)
	assert.Equal(t, Change{Kind: ChangePut, At: Point{Row: 1, Column: 2}, Text: "q", Columns: [2]int{2, 2}}, changes[0])
	assert.Equal(t, Change{Kind: ChangeEOLClear, At: Point{Row: 1, Column: 3}, Columns: [2]int{3, 4}}, changes[1])
	assert.Equal(t, ChangeFinish, changes[2].Kind)

	cancel()
	g.RedrawFinish()
	assert.Len(t, changes, 3)
}

func TestGrid_ListenerMayReadGrid(t *testing.T) {
	g := newTestGrid(t, 1, 3, 0)

	var seen string
	g.Subscribe(func(c Change) {
		if c.Kind == ChangePut {
			seen = g.RowText(c.At.Row, 0, 3)
		}
	})

	g.Put("z")
	assert.Equal(t, "z", seen)
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "put", ChangePut.String())
	assert.Equal(t, "eol_clear", ChangeEOLClear.String())
	assert.Equal(t, "finish", ChangeFinish.String())
	assert.Equal(t, "unknown", ChangeKind(42).String())
}

func TestGrid_SnapshotIsACopy(t *testing.T) {
	g := newTestGrid(t, 2, 3, 0)
	g.CursorGoto(1, 0)
	g.Put("a")

	snap := g.Snapshot()
	g.CursorGoto(1, 0)
	g.Put("b")

	assert.Equal(t, "a", snap.Cell(1, 0).Text())
	assert.Equal(t, Position{Row: 1, Col: 1}, snap.Cursor)
	assert.Equal(t, "b", g.Cell(1, 0).Text())
	assert.True(t, snap.Cell(5, 5).IsEmpty())
}

func TestGrid_FrameHidesUnfinishedBatch(t *testing.T) {
	g := newTestGrid(t, 1, 4, 0)

	frame := g.Frame()
	assert.Equal(t, 1, frame.Rows)
	assert.Equal(t, 4, frame.Cols)
	assert.True(t, frame.Cell(0, 0).IsEmpty())

	g.Put("x")
	g.RedrawFinish()

	// The next batch is only half applied.
	g.CursorGoto(0, 0)
	g.Put("y")

	frame = g.Frame()
	assert.Equal(t, "x", frame.Cell(0, 0).Text())
	assert.Equal(t, Position{Row: 0, Col: 1}, frame.Cursor)
	assert.Equal(t, "y", g.Cell(0, 0).Text())
}
