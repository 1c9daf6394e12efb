package grid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Grid is the mirrored screen of the editor.
type Grid struct {
	mu sync.RWMutex

	rows  int
	cols  int
	cells []Cell

	cursor Position
	region Region

	// Width of the line number gutter rendered at the left of each window.
	gutter int

	// frame is the state committed by the last RedrawFinish.
	frame Snapshot

	listenerMu sync.RWMutex
	listeners  []listenerEntry
	nextID     int
}

type listenerEntry struct {
	id int
	fn Listener
}

// New creates an empty grid of the given size.
// The scroll region covers the whole grid.
func New(rows, cols, gutter int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	if gutter < 0 || gutter > cols {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGutter, gutter)
	}

	g := &Grid{
		rows:   rows,
		cols:   cols,
		cells:  make([]Cell, rows*cols),
		gutter: gutter,
		region: Region{Top: 0, Bottom: rows - 1, Left: 0, Right: cols - 1},
	}
	g.frame = g.snapshotLocked()
	return g, nil
}

// Size returns the grid dimensions.
func (g *Grid) Size() (rows, cols int) {
	return g.rows, g.cols
}

// Gutter returns the configured line number gutter width.
func (g *Grid) Gutter() int {
	return g.gutter
}

// Cursor returns the cursor position.
func (g *Grid) Cursor() Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cursor
}

// Region returns the active scroll region.
func (g *Grid) Region() Region {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.region
}

// Cell returns the cell at the given position.
// Returns Empty if out of bounds.
func (g *Grid) Cell(row, col int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index(row, col)
	if !ok {
		return Empty
	}
	return g.cells[i]
}

// Subscribe registers a change listener and returns a function that removes it.
func (g *Grid) Subscribe(fn Listener) (cancel func()) {
	g.listenerMu.Lock()
	g.nextID++
	id := g.nextID
	g.listeners = append(g.listeners, listenerEntry{id: id, fn: fn})
	g.listenerMu.Unlock()

	return func() {
		g.listenerMu.Lock()
		defer g.listenerMu.Unlock()
		for i, l := range g.listeners {
			if l.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Grid) notify(c Change) {
	g.listenerMu.RLock()
	listeners := make([]Listener, len(g.listeners))
	for i, l := range g.listeners {
		listeners[i] = l.fn
	}
	g.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// index converts a coordinate into an offset in the flat cell buffer.
func (g *Grid) index(row, col int) (int, bool) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return 0, false
	}
	return row*g.cols + col, true
}

// CursorGoto moves the cursor. Coordinates are not clamped.
func (g *Grid) CursorGoto(row, col int) {
	g.mu.Lock()
	g.cursor = Position{Row: row, Col: col}
	g.mu.Unlock()
}

// Put writes one glyph at the cursor and advances the cursor by one column.
// The cursor may move past the last column; the editor always sends an
// explicit goto before writing on another row.
func (g *Grid) Put(text string) {
	g.mu.Lock()
	at := g.cursor
	if i, ok := g.index(at.Row, at.Col); ok {
		g.cells[i] = Glyph(text)
	}
	g.cursor.Col++
	g.mu.Unlock()

	g.notify(Change{
		Kind:    ChangePut,
		At:      Point{Row: at.Row, Column: at.Col},
		Text:    text,
		Columns: [2]int{at.Col, at.Col},
	})
}

// EOLClear clears the cursor row from the cursor column to the end of the row.
func (g *Grid) EOLClear() {
	g.mu.Lock()
	at := g.cursor
	if at.Row >= 0 && at.Row < g.rows {
		start := at.Col
		if start < 0 {
			start = 0
		}
		g.clearRowLocked(at.Row, start, g.cols-1)
	}
	g.mu.Unlock()

	g.notify(Change{
		Kind:    ChangeEOLClear,
		At:      Point{Row: at.Row, Column: at.Col},
		Columns: [2]int{at.Col, g.cols - 1},
	})
}

// Clear clears the active scroll region.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.region
	g.clearRegionLocked(r.Top, r.Bottom, r.Left, r.Right)
}

// ClearRegion sets every cell in the inclusive rectangle to Empty.
func (g *Grid) ClearRegion(top, bottom, left, right int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearRegionLocked(top, bottom, left, right)
}

func (g *Grid) clearRegionLocked(top, bottom, left, right int) {
	for row := top; row <= bottom; row++ {
		g.clearRowLocked(row, left, right)
	}
}

// clearRowLocked clears columns [left, right] of row, skipping anything out of bounds.
func (g *Grid) clearRowLocked(row, left, right int) {
	if row < 0 || row >= g.rows {
		return
	}
	if left < 0 {
		left = 0
	}
	if right >= g.cols {
		right = g.cols - 1
	}
	base := row * g.cols
	for col := left; col <= right; col++ {
		g.cells[base+col] = Empty
	}
}

// SetScrollRegion replaces the region used by Scroll and Clear.
func (g *Grid) SetScrollRegion(top, bottom, left, right int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.region = Region{Top: top, Bottom: bottom, Left: left, Right: right}
}

// Scroll shifts the scroll region's content vertically by count rows.
// A positive count moves content up, a negative count moves it down.
// Rows exposed by the shift are cleared. Columns outside the region are
// left untouched.
func (g *Grid) Scroll(count int) {
	if count == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.region
	n := count
	if n < 0 {
		n = -n
	}
	if n >= r.Height() {
		g.clearRegionLocked(r.Top, r.Bottom, r.Left, r.Right)
		return
	}

	if count > 0 {
		// Top to bottom so each source row is read before it is overwritten.
		for row := r.Top; row <= r.Bottom-count; row++ {
			g.copyRowLocked(row, row+count, r.Left, r.Right)
		}
		g.clearRegionLocked(r.Bottom-count+1, r.Bottom, r.Left, r.Right)
		return
	}

	for row := r.Bottom; row >= r.Top-count; row-- {
		g.copyRowLocked(row, row+count, r.Left, r.Right)
	}
	g.clearRegionLocked(r.Top, r.Top-count-1, r.Left, r.Right)
}

func (g *Grid) copyRowLocked(dst, src, left, right int) {
	if dst < 0 || dst >= g.rows || src < 0 || src >= g.rows {
		return
	}
	if left < 0 {
		left = 0
	}
	if right >= g.cols {
		right = g.cols - 1
	}
	if left > right {
		return
	}
	copy(g.cells[dst*g.cols+left:dst*g.cols+right+1], g.cells[src*g.cols+left:src*g.cols+right+1])
}

// RedrawFinish signals that the operations applied so far form one renderable frame.
func (g *Grid) RedrawFinish() {
	g.mu.Lock()
	g.frame = g.snapshotLocked()
	g.mu.Unlock()

	g.notify(Change{Kind: ChangeFinish})
}

// Snapshot copies the current cells and cursor under a single lock.
func (g *Grid) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

// Frame returns the grid as it was at the last RedrawFinish, or the empty
// grid before the first one. Operations of a batch still being applied are
// never visible in it.
func (g *Grid) Frame() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frame
}

func (g *Grid) snapshotLocked() Snapshot {
	return Snapshot{
		Rows:   g.rows,
		Cols:   g.cols,
		Cursor: g.cursor,
		cells:  slices.Clone(g.cells),
	}
}

// OffsetLine parses the gutter of row 0 as the 1-based line number shown
// there and returns it as a 0-based buffer offset.
func (g *Grid) OffsetLine() (int, error) {
	g.mu.RLock()
	var b strings.Builder
	for col := 0; col < g.gutter; col++ {
		b.WriteString(g.cells[col].glyph)
	}
	g.mu.RUnlock()

	text := strings.TrimSpace(b.String())
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrGutterNotNumeric, text)
	}
	return n - 1, nil
}

// BufferCursor returns the cursor translated into buffer coordinates: the
// row is offset by the line number shown in the gutter and the column
// excludes the gutter.
func (g *Grid) BufferCursor() (Position, error) {
	offset, err := g.OffsetLine()
	if err != nil {
		return Position{}, err
	}
	cur := g.Cursor()
	return Position{Row: cur.Row + offset, Col: cur.Col - g.gutter}, nil
}

// RowText returns the text of row between colStart (inclusive) and colEnd
// (exclusive).
//
// Empty cells inside the text become spaces. A run of empty cells at the
// end of the range is dropped unless a non-empty cell follows it later in
// the row, in which case the run is kept as spaces.
func (g *Grid) RowText(row, colStart, colEnd int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if row < 0 || row >= g.rows {
		return ""
	}
	if colStart < 0 {
		colStart = 0
	}
	if colEnd > g.cols {
		colEnd = g.cols
	}

	line := g.cells[row*g.cols : (row+1)*g.cols]

	var b strings.Builder
	run := 0
	col := colStart
	for ; col < colEnd; col++ {
		c := line[col]
		if c.IsEmpty() {
			run++
			continue
		}
		b.WriteString(strings.Repeat(" ", run))
		b.WriteString(c.glyph)
		run = 0
	}

	// Keep the trailing run only if the row has content after it.
	if run > 0 {
		for ; col < len(line); col++ {
			if !line[col].IsEmpty() {
				b.WriteString(strings.Repeat(" ", run))
				break
			}
		}
	}
	return b.String()
}

// Text returns every row with empty cells shown as spaces, joined by newlines.
func (g *Grid) Text() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	b.Grow(g.rows * (g.cols + 1))
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for _, c := range g.cells[row*g.cols : (row+1)*g.cols] {
			if c.IsEmpty() {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(c.glyph)
		}
	}
	return b.String()
}
