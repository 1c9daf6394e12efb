package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// Default timings.
const (
	DefaultWindowDebounce    = 500 * time.Millisecond
	DefaultBufferEnterWindow = 50 * time.Millisecond
	DefaultQueryConcurrency  = 4
)

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	windowDebounce    time.Duration
	bufferEnterWindow time.Duration
	queryConcurrency  int
	passTimeout       time.Duration
	logger            *zap.Logger
}

func defaultOptions() options {
	return options{
		windowDebounce:    DefaultWindowDebounce,
		bufferEnterWindow: DefaultBufferEnterWindow,
		queryConcurrency:  DefaultQueryConcurrency,
		logger:            zap.NewNop(),
	}
}

// WithWindowDebounce sets the quiet period after the last win-created
// before a metadata pass runs.
func WithWindowDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.windowDebounce = d
		}
	}
}

// WithBufferEnterWindow sets the buf-enter grouping window.
func WithBufferEnterWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.bufferEnterWindow = d
		}
	}
}

// WithQueryConcurrency limits concurrent per-window queries in a pass.
func WithQueryConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queryConcurrency = n
		}
	}
}

// WithPassTimeout bounds a single metadata pass. Zero means no bound.
func WithPassTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.passTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
