package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// TopicAll subscribes to every topic.
const TopicAll Topic = "*"

// Handler receives published messages.
type Handler func(Message)

// Bus is a typed publish-subscribe bus.
//
// Handlers run synchronously on the publishing goroutine, in subscription
// order. A panicking handler is recovered and logged; the remaining
// handlers still run. Handlers must not block: anything slow should be
// handed off to another goroutine.
type Bus struct {
	mu sync.RWMutex

	// Subscribers by topic, in subscription order.
	subscribers map[Topic][]*Subscription

	nextID atomic.Uint64
	closed atomic.Bool

	published atomic.Uint64
	panics    atomic.Uint64

	log *zap.Logger
}

// Subscription is a registered handler. Cancel removes it.
type Subscription struct {
	id      uint64
	topic   Topic
	handler Handler
	bus     *Bus
	active  atomic.Bool
}

// NewBus creates a bus. A nil logger discards output.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subscribers: make(map[Topic][]*Subscription),
		log:         log,
	}
}

// Subscribe registers handler for topic. Use TopicAll to receive everything.
func (b *Bus) Subscribe(topic Topic, handler Handler) (*Subscription, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidSubscription)
	}

	sub := &Subscription{
		id:      b.nextID.Add(1),
		topic:   topic,
		handler: handler,
		bus:     b,
	}
	sub.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	return sub, nil
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Active reports whether the subscription still receives messages.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Cancel removes the subscription. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if !s.active.Swap(false) {
		return
	}
	s.bus.remove(s)
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s.id == sub.id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subscribers, sub.topic)
		return
	}
	b.subscribers[sub.topic] = subs
}

// Publish delivers msg to every handler of its topic and to TopicAll handlers.
func (b *Bus) Publish(msg Message) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if msg == nil {
		return ErrInvalidMessage
	}

	b.published.Add(1)
	for _, sub := range b.matching(msg.Topic()) {
		if !sub.active.Load() {
			continue
		}
		b.deliver(sub, msg)
	}
	return nil
}

func (b *Bus) deliver(sub *Subscription, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.log.Error("event handler panicked",
				zap.String("topic", string(msg.Topic())),
				zap.Any("panic", r))
		}
	}()
	sub.handler(msg)
}

func (b *Bus) matching(topic Topic) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	exact := b.subscribers[topic]
	all := b.subscribers[TopicAll]
	if topic == TopicAll {
		all = nil
	}

	out := make([]*Subscription, 0, len(exact)+len(all))
	out = append(out, exact...)
	return append(out, all...)
}

// SubscriberCount returns the number of active subscriptions for topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Published returns the number of messages published.
func (b *Bus) Published() uint64 {
	return b.published.Load()
}

// Close shuts down the bus. Later Subscribe and Publish calls fail with
// ErrBusClosed.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subscribers {
		for _, s := range subs {
			s.active.Store(false)
		}
	}
	b.subscribers = make(map[Topic][]*Subscription)
}
