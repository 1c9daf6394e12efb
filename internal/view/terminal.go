package view

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/neomirror/internal/grid"
)

// Terminal draws a mirrored grid onto a tcell screen.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
}

// NewTerminal creates a terminal on the controlling tty.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing screen, such as a simulation
// screen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnablePaste()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// PollEvent blocks for the next terminal event. It returns nil once the
// terminal has been shut down.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// PostEvent queues ev as if it came from the terminal.
func (t *Terminal) PostEvent(ev tcell.Event) error {
	return t.screen.PostEvent(ev)
}

// Rune returns the main rune drawn at x, y.
func (t *Terminal) Rune(x, y int) rune {
	t.mu.Lock()
	defer t.mu.Unlock()

	mainc, _, _, _ := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
	return mainc
}

// Draw copies frame onto the screen, places the cursor and shows it.
// Cells outside the terminal are clipped.
func (t *Terminal) Draw(frame grid.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, height := t.screen.Size()
	for r := 0; r < frame.Rows && r < height; r++ {
		for c := 0; c < frame.Cols && c < width; c++ {
			mainc, comb := glyphRunes(frame.Cell(r, c))
			t.screen.SetContent(c, r, mainc, comb, tcell.StyleDefault)
		}
	}

	cursor := frame.Cursor
	if cursor.Row < height && cursor.Col < width {
		t.screen.ShowCursor(cursor.Col, cursor.Row)
	} else {
		t.screen.HideCursor()
	}
	t.screen.Show()
}

// Refresh repaints the whole terminal, used after a resize.
func (t *Terminal) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Sync()
}

func glyphRunes(cell grid.Cell) (rune, []rune) {
	if cell.IsEmpty() {
		return ' ', nil
	}
	runes := []rune(cell.Text())
	if len(runes) == 0 {
		return ' ', nil
	}
	return runes[0], runes[1:]
}
