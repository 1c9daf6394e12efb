// Package view presents a mirrored editor screen in the local terminal and
// forwards keystrokes back to the editor.
//
// Frames are painted when the grid reports a finished redraw batch. While a
// window sync pass is running, frames are held and the latest one is painted
// once the pass finishes.
package view

import (
	"context"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/event"
	"github.com/dshills/neomirror/internal/grid"
)

// Source is the mirrored session being viewed. *bridge.Bridge implements it.
type Source interface {
	Grid() *grid.Grid
	Bus() *event.Bus
	Syncing() bool
	Input(ctx context.Context, keys string) error
}

// Stats counts frame decisions.
type Stats struct {
	Painted uint64
	Held    uint64
	Keys    uint64
}

// View runs the terminal loop for one Source.
type View struct {
	term *Terminal
	src  Source
	log  *zap.Logger

	frames chan struct{}

	painted atomic.Uint64
	held    atomic.Uint64
	keys    atomic.Uint64
}

// New creates a view. A nil logger discards output.
func New(term *Terminal, src Source, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{
		term:   term,
		src:    src,
		log:    logger.Named("view"),
		frames: make(chan struct{}, 1),
	}
}

// Stats returns the frame counters.
func (v *View) Stats() Stats {
	return Stats{
		Painted: v.painted.Load(),
		Held:    v.held.Load(),
		Keys:    v.keys.Load(),
	}
}

// Run initialises the terminal and serves it until ctx is done or the quit
// key is pressed. The terminal is shut down before Run returns.
func (v *View) Run(ctx context.Context) error {
	if err := v.term.Init(); err != nil {
		return err
	}

	stopGrid := v.src.Grid().Subscribe(func(c grid.Change) {
		if c.Kind == grid.ChangeFinish {
			v.requestFrame()
		}
	})
	defer stopGrid()

	sub, err := v.src.Bus().Subscribe(event.TopicSyncFinished, func(event.Message) {
		v.requestFrame()
	})
	if err != nil {
		v.term.Shutdown()
		return err
	}
	defer sub.Cancel()

	pollCtx, cancel := context.WithCancel(ctx)
	events := make(chan tcell.Event, 16)
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			ev := v.term.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-pollCtx.Done():
				return
			}
		}
	}()
	defer func() {
		cancel()
		v.term.Shutdown()
		<-polled
	}()

	v.requestFrame()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.frames:
			v.frame()
		case ev := <-events:
			if quit := v.handle(ctx, ev); quit {
				return nil
			}
		}
	}
}

func (v *View) requestFrame() {
	select {
	case v.frames <- struct{}{}:
	default:
	}
}

func (v *View) frame() {
	if v.src.Syncing() {
		v.held.Add(1)
		return
	}
	v.term.Draw(v.src.Grid().Frame())
	v.painted.Add(1)
}

func (v *View) handle(ctx context.Context, ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if IsQuit(e) {
			return true
		}
		keys := Keys(e)
		if keys == "" {
			return false
		}
		v.keys.Add(1)
		if err := v.src.Input(ctx, keys); err != nil {
			v.log.Warn("input failed", zap.String("keys", keys), zap.Error(err))
		}

	case *tcell.EventResize:
		v.term.Refresh()
		v.requestFrame()

	case *tcell.EventPaste:
		v.log.Debug("paste", zap.Bool("start", e.Start()))
	}
	return false
}
