// Package bridge wires one editor session to the mirrored screen.
//
// A Bridge owns the grid, the redraw dispatcher, the notification router,
// the event bus and the reconciliation coordinator. It tracks window sync
// passes so a renderer can hold frames while the layout is being fetched.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/config"
	"github.com/dshills/neomirror/internal/event"
	"github.com/dshills/neomirror/internal/grid"
	"github.com/dshills/neomirror/internal/nvim"
	"github.com/dshills/neomirror/internal/reconcile"
	"github.com/dshills/neomirror/internal/redraw"
	"github.com/dshills/neomirror/internal/router"
	"github.com/dshills/neomirror/internal/statusline"
)

// Editor is the editor session a Bridge drives. *nvim.Session implements it.
type Editor interface {
	reconcile.Editor

	Configure(ctx context.Context, lineNumberColumns int) error
	RegisterEvents(ctx context.Context, h nvim.Handler) error
	Attach(ctx context.Context, columns, rows int) error
	Input(ctx context.Context, keys string) error
	BufferText(ctx context.Context) (string, error)
	Close() error
}

// Bridge is one mirrored editor session.
type Bridge struct {
	cfg    config.Config
	editor Editor
	log    *zap.Logger

	grid       *grid.Grid
	bus        *event.Bus
	dispatcher *redraw.Dispatcher
	router     *router.Router
	coord      *reconcile.Coordinator

	syncing atomic.Bool

	mu      sync.Mutex
	subs    []*event.Subscription
	started bool
	closed  bool
}

// New builds a bridge around editor. Nothing talks to the editor until
// Start.
func New(cfg config.Config, editor Editor, logger *zap.Logger) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g, err := grid.New(cfg.Screen.Rows, cfg.Screen.Columns, cfg.Screen.LineNumberColumns)
	if err != nil {
		return nil, fmt.Errorf("create grid: %w", err)
	}

	bus := event.NewBus(logger.Named("bus"))
	dispatcher := redraw.NewDispatcher(g, logger.Named("redraw"))
	b := &Bridge{
		cfg:        cfg,
		editor:     editor,
		log:        logger.Named("bridge"),
		grid:       g,
		bus:        bus,
		dispatcher: dispatcher,
		router:     router.New(dispatcher, bus, logger.Named("router")),
		coord: reconcile.NewCoordinator(editor, bus,
			reconcile.WithWindowDebounce(cfg.Reconcile.WindowDebounce),
			reconcile.WithBufferEnterWindow(cfg.Reconcile.BufferEnterWindow),
			reconcile.WithQueryConcurrency(cfg.Reconcile.QueryConcurrency),
			reconcile.WithLogger(logger),
		),
	}
	return b, nil
}

// Open connects to the editor described by cfg and starts a bridge on it.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Bridge, error) {
	session, err := nvim.Spawn(ctx, nvim.Config{
		Path:   cfg.Editor.Path,
		Args:   cfg.Editor.Args,
		Socket: cfg.Editor.Socket,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	b, err := New(cfg, session, logger)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	if err := b.Start(ctx); err != nil {
		_ = b.Close(context.Background())
		return nil, err
	}
	return b, nil
}

// Start configures the editor, installs the notification routing and
// attaches as a UI.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.mu.Unlock()

	if err := b.watchSync(); err != nil {
		return err
	}
	if err := b.coord.Start(); err != nil {
		return fmt.Errorf("start reconcile: %w", err)
	}

	if err := b.editor.Configure(ctx, b.cfg.Screen.LineNumberColumns); err != nil {
		return fmt.Errorf("configure editor: %w", err)
	}
	if err := b.editor.RegisterEvents(ctx, b.router.Handle); err != nil {
		return fmt.Errorf("register events: %w", err)
	}
	if err := b.editor.Attach(ctx, b.cfg.Screen.Columns, b.cfg.Screen.Rows); err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	b.log.Info("bridge started",
		zap.Int("rows", b.cfg.Screen.Rows),
		zap.Int("columns", b.cfg.Screen.Columns))
	return nil
}

func (b *Bridge) watchSync() error {
	started, err := b.bus.Subscribe(event.TopicSyncStarted, func(event.Message) {
		b.syncing.Store(true)
	})
	if err != nil {
		return err
	}
	finished, err := b.bus.Subscribe(event.TopicSyncFinished, func(msg event.Message) {
		b.syncing.Store(false)
		if fin, ok := msg.(event.SyncFinished); ok && fin.Err != nil {
			b.log.Warn("window sync failed", zap.Uint64("pass", fin.Pass), zap.Error(fin.Err))
		}
	})
	if err != nil {
		started.Cancel()
		return err
	}

	b.mu.Lock()
	b.subs = append(b.subs, started, finished)
	b.mu.Unlock()
	return nil
}

// Grid returns the mirrored screen.
func (b *Bridge) Grid() *grid.Grid {
	return b.grid
}

// Bus returns the session's event bus.
func (b *Bridge) Bus() *event.Bus {
	return b.bus
}

// Layout returns the last complete window layout.
func (b *Bridge) Layout() event.Layout {
	return b.coord.Layout()
}

// Sync fetches the window layout now.
func (b *Bridge) Sync(ctx context.Context) (event.Layout, error) {
	return b.coord.Sync(ctx)
}

// Syncing reports whether a window sync pass is in progress. Renderers
// should not present frames while it is true.
func (b *Bridge) Syncing() bool {
	return b.syncing.Load()
}

// Stats returns redraw dispatch counters.
func (b *Bridge) Stats() redraw.Stats {
	return b.dispatcher.Stats()
}

// CellsAsText returns the whole grid as text.
func (b *Bridge) CellsAsText() string {
	return b.grid.Text()
}

// BufferText returns the text of the editor's current buffer.
func (b *Bridge) BufferText(ctx context.Context) (string, error) {
	return b.editor.BufferText(ctx)
}

// Statuses returns the status lines visible on the grid.
func (b *Bridge) Statuses() []statusline.Status {
	rows, cols := b.grid.Size()
	lines := make([]string, rows)
	for r := range lines {
		lines[r] = b.grid.RowText(r, 0, cols)
	}
	return statusline.Scan(lines)
}

// Input forwards keys to the editor.
func (b *Bridge) Input(ctx context.Context, keys string) error {
	return b.editor.Input(ctx, keys)
}

// Close stops reconciliation, closes the bus and ends the editor session.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var errs []error
	if err := b.coord.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop reconcile: %w", err))
	}
	for _, s := range subs {
		s.Cancel()
	}
	b.bus.Close()
	if err := b.editor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close editor: %w", err))
	}
	b.log.Info("bridge closed")
	return errors.Join(errs...)
}
