// Package router classifies inbound editor notifications.
//
// Redraw batches go to the redraw dispatcher on the calling goroutine, so
// batches apply in delivery order. Every other notification is published
// on the event bus under its method name: lifecycle methods as typed
// event.Lifecycle messages, anything else as event.Notification.
package router

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/event"
)

// RedrawMethod is the reserved notification method for redraw batches.
const RedrawMethod = "redraw"

// Applier applies one redraw batch. *redraw.Dispatcher implements it.
type Applier interface {
	Apply(batch []any) error
}

// Publisher publishes bus messages. *event.Bus implements it.
type Publisher interface {
	Publish(msg event.Message) error
}

// Router is the single dispatch point for editor notifications.
type Router struct {
	redraw Applier
	bus    Publisher
	log    *zap.Logger

	batches atomic.Uint64
	events  atomic.Uint64
}

// New creates a router.
func New(redraw Applier, bus Publisher, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{redraw: redraw, bus: bus, log: log}
}

// Handle routes one decoded notification.
func (r *Router) Handle(method string, args []any) {
	if method == RedrawMethod {
		r.batches.Add(1)
		if err := r.redraw.Apply(args); err != nil {
			r.log.Warn("redraw batch partially applied", zap.Error(err))
		}
		return
	}

	r.events.Add(1)
	msg := r.classify(method, args)
	if err := r.bus.Publish(msg); err != nil {
		r.log.Debug("notification dropped",
			zap.String("method", method),
			zap.Error(err))
	}
}

func (r *Router) classify(method string, args []any) event.Message {
	if !event.IsLifecycle(event.Topic(method)) {
		return event.Notification{Method: method, Args: args}
	}

	ev, err := event.ParseLifecycle(method, args)
	if err != nil {
		// Keep the raw payload flowing so listeners on the topic still see it.
		r.log.Warn("malformed lifecycle notification",
			zap.String("method", method),
			zap.Error(err))
		return event.Notification{Method: method, Args: args}
	}

	r.log.Debug("lifecycle event",
		zap.String("method", method),
		zap.String("window", ev.WindowID),
		zap.Int("buffer", ev.BufferNumber),
		zap.String("path", ev.FilePath))
	return ev
}

// Counts returns the number of redraw batches and bus notifications routed.
func (r *Router) Counts() (batches, events uint64) {
	return r.batches.Load(), r.events.Load()
}
