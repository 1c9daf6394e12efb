package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/neomirror/internal/event"
)

// WindowHandle is the editor's transient handle for an open window.
type WindowHandle int64

// Editor is the query side of the editor connection.
type Editor interface {
	// ListWindows returns the handles of every open window.
	ListWindows(ctx context.Context) ([]WindowHandle, error)

	// DescribeWindow reads the position, size, buffer, identity and
	// line-number flag of one window.
	DescribeWindow(ctx context.Context, w WindowHandle) (event.WindowDetail, error)
}

// Bus is the part of the event bus the coordinator uses.
type Bus interface {
	Subscribe(topic event.Topic, handler event.Handler) (*event.Subscription, error)
	Publish(msg event.Message) error
}

// Coordinator keeps the window layout in step with the editor.
//
// win-created events are debounced into metadata passes. buf-enter events
// are grouped per buffer and republished as BufferSettled. Passes never run
// concurrently: a trigger that arrives during a pass schedules one more
// pass after it.
type Coordinator struct {
	editor Editor
	bus    Bus
	opts   options
	log    *zap.Logger

	debouncer *Debouncer
	grouper   *Grouper[int, event.Lifecycle]

	layout atomic.Pointer[event.Layout]
	passes atomic.Uint64

	// execMu is held for the duration of a pass.
	execMu sync.Mutex

	mu      sync.Mutex
	subs    []*event.Subscription
	started bool
	stopped bool
	running bool
	rerun   bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator. Call Start to begin listening.
func NewCoordinator(editor Editor, bus Bus, opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		editor: editor,
		bus:    bus,
		opts:   o,
		log:    o.logger.Named("reconcile"),
		ctx:    ctx,
		cancel: cancel,
	}
	c.debouncer = NewDebouncer(o.windowDebounce, c.trigger)
	c.grouper = NewGrouper(o.bufferEnterWindow,
		func(ev event.Lifecycle) int { return ev.BufferNumber },
		c.settle)

	empty := event.Layout{}
	c.layout.Store(&empty)
	return c
}

// Start subscribes to the lifecycle streams.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return ErrAlreadyStarted
	}

	winSub, err := c.bus.Subscribe(event.TopicWinCreated, c.onWinCreated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", event.TopicWinCreated, err)
	}
	bufSub, err := c.bus.Subscribe(event.TopicBufEnter, c.onBufEnter)
	if err != nil {
		winSub.Cancel()
		return fmt.Errorf("subscribe %s: %w", event.TopicBufEnter, err)
	}

	c.subs = []*event.Subscription{winSub, bufSub}
	c.started = true
	return nil
}

func (c *Coordinator) onWinCreated(msg event.Message) {
	if ev, ok := msg.(event.Lifecycle); ok {
		c.log.Debug("win created", zap.String("window", ev.WindowID), zap.Int("buffer", ev.BufferNumber))
	}
	c.debouncer.Call()
}

func (c *Coordinator) onBufEnter(msg event.Message) {
	ev, ok := msg.(event.Lifecycle)
	if !ok {
		return
	}
	c.grouper.Add(ev)
}

func (c *Coordinator) settle(ev event.Lifecycle) {
	c.log.Debug("last buf enter",
		zap.String("window", ev.WindowID),
		zap.Int("buffer", ev.BufferNumber),
		zap.String("path", ev.FilePath))
	if err := c.bus.Publish(event.BufferSettled{Lifecycle: ev}); err != nil {
		c.log.Debug("buffer settled dropped", zap.Error(err))
	}
}

// trigger starts a background pass, or marks a follow-up if one is running.
func (c *Coordinator) trigger() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.running {
		c.rerun = true
		c.mu.Unlock()
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop()
}

func (c *Coordinator) loop() {
	defer c.wg.Done()
	for {
		if _, err := c.runPass(c.ctx); err != nil {
			c.log.Warn("window sync failed", zap.Error(err))
		}

		c.mu.Lock()
		if !c.rerun || c.stopped {
			c.running = false
			c.rerun = false
			c.mu.Unlock()
			return
		}
		c.rerun = false
		c.mu.Unlock()
	}
}

// Sync runs one metadata pass now and returns the resulting layout.
func (c *Coordinator) Sync(ctx context.Context) (event.Layout, error) {
	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		return nil, ErrStopped
	}
	return c.runPass(ctx)
}

// runPass performs one metadata pass. SyncStarted and SyncFinished are
// always published as a pair.
func (c *Coordinator) runPass(ctx context.Context) (event.Layout, error) {
	c.execMu.Lock()
	defer c.execMu.Unlock()

	pass := c.passes.Add(1)
	c.publish(event.SyncStarted{Pass: pass})

	if c.opts.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.passTimeout)
		defer cancel()
	}

	layout, err := c.fetch(ctx)
	if err != nil {
		prev := c.Layout()
		c.publish(event.SyncFinished{Pass: pass, Windows: prev, Err: err})
		return prev, err
	}

	c.layout.Store(&layout)
	c.log.Debug("window sync finished", zap.Uint64("pass", pass), zap.Int("windows", len(layout)))
	c.publish(event.SyncFinished{Pass: pass, Windows: layout})
	return layout, nil
}

func (c *Coordinator) fetch(ctx context.Context) (event.Layout, error) {
	handles, err := c.editor.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	details := make([]event.WindowDetail, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.queryConcurrency)
	for i, h := range handles {
		g.Go(func() error {
			d, err := c.editor.DescribeWindow(gctx, h)
			if err != nil {
				return fmt.Errorf("describe window %d: %w", h, err)
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	layout := make(event.Layout, len(details))
	for i, d := range details {
		if d.WindowID == "" {
			c.log.Warn("skipping window", zap.Int64("handle", int64(handles[i])), zap.Error(ErrMissingWindowID))
			continue
		}
		if _, dup := layout[d.WindowID]; dup {
			c.log.Warn("duplicate window id", zap.String("window", d.WindowID))
		}
		layout[d.WindowID] = d
	}
	return layout, nil
}

func (c *Coordinator) publish(msg event.Message) {
	if err := c.bus.Publish(msg); err != nil {
		c.log.Debug("sync message dropped", zap.String("topic", string(msg.Topic())), zap.Error(err))
	}
}

// Layout returns the most recent complete window layout. The returned map
// must not be modified.
func (c *Coordinator) Layout() event.Layout {
	return *c.layout.Load()
}

// Passes returns the number of passes started.
func (c *Coordinator) Passes() uint64 {
	return c.passes.Load()
}

// Stop unsubscribes, drops pending timers and waits for a running pass.
// If ctx ends first the pass is cancelled.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
	c.debouncer.Cancel()
	c.grouper.Stop()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	defer c.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}
