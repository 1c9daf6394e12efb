package reconcile

import (
	"sync"
	"time"
)

// Grouper buffers values into fixed time windows and emits, per key, only
// the latest value seen in the window.
//
// A window opens with the first value added while no window is open and
// closes window later. On close, the surviving values are emitted in the
// order their keys first appeared in the window.
type Grouper[K comparable, V any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	window time.Duration
	key    func(V) K
	emit   func(V)

	timer   *time.Timer
	seq     uint64
	latest  map[K]V
	order   []K
	stopped bool
}

// NewGrouper creates a grouper. key extracts the grouping key, emit
// receives each surviving value.
func NewGrouper[K comparable, V any](window time.Duration, key func(V) K, emit func(V)) *Grouper[K, V] {
	return &Grouper[K, V]{
		window: window,
		key:    key,
		emit:   emit,
		latest: make(map[K]V),
	}
}

// Add records v in the current window, opening one if needed.
func (g *Grouper[K, V]) Add(v V) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return
	}

	k := g.key(v)
	if _, seen := g.latest[k]; !seen {
		g.order = append(g.order, k)
	}
	g.latest[k] = v

	if g.timer != nil {
		return
	}
	g.seq++
	currentSeq := g.seq
	g.timer = time.AfterFunc(g.window, func() {
		g.flush(currentSeq)
	})
}

// Flush closes the current window immediately.
func (g *Grouper[K, V]) Flush() {
	g.mu.Lock()
	currentSeq := g.seq
	g.mu.Unlock()
	g.flush(currentSeq)
}

func (g *Grouper[K, V]) flush(seq uint64) {
	g.emitMu.Lock()
	defer g.emitMu.Unlock()

	g.mu.Lock()
	if seq != g.seq || len(g.order) == 0 {
		g.mu.Unlock()
		return
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	out := make([]V, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.latest[k])
	}
	g.latest = make(map[K]V)
	g.order = nil
	g.mu.Unlock()

	for _, v := range out {
		g.emit(v)
	}
}

// Pending returns the number of keys waiting in the open window.
func (g *Grouper[K, V]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

// Stop discards the open window. Later Adds are ignored.
func (g *Grouper[K, V]) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.seq++
	g.latest = make(map[K]V)
	g.order = nil
}
