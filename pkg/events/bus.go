// Package events carries the "entity list changed" signal raised after a
// successful submission. Views that render entity lists subscribe to a topic
// and refresh when it fires.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formdraft/pkg/observability"
)

// Invalidation is one list-changed signal.
type Invalidation struct {
	ID    string
	Topic string
	At    time.Time
}

// Invalidator raises list-changed signals. The submission pipeline depends
// on this interface only.
type Invalidator interface {
	Invalidate(ctx context.Context, topic string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, topic string)

func (f InvalidatorFunc) Invalidate(ctx context.Context, topic string) {
	f(ctx, topic)
}

// Handler reacts to an invalidation.
type Handler interface {
	HandleInvalidation(ctx context.Context, evt Invalidation) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Invalidation) error

func (f HandlerFunc) HandleInvalidation(ctx context.Context, evt Invalidation) error {
	return f(ctx, evt)
}

// Bus dispatches invalidations synchronously to the subscribers of a topic,
// in subscription order. Handler errors are logged and do not stop delivery.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]namedHandler
	nextID int
	logger observability.Logger
	now    func() time.Time
}

type namedHandler struct {
	id      int
	name    string
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for handler failures.
func WithLogger(logger observability.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[string][]namedHandler),
		logger: observability.Nop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers a named handler for topic. The returned function
// removes it.
func (b *Bus) Subscribe(topic, name string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[topic] = append(b.subs[topic], namedHandler{id: id, name: name, handler: h})
	return func() { b.unsubscribe(topic, id) }
}

func (b *Bus) unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Invalidate notifies every subscriber of topic.
func (b *Bus) Invalidate(ctx context.Context, topic string) {
	evt := Invalidation{ID: uuid.NewString(), Topic: topic, At: b.now()}

	b.mu.RLock()
	subs := append([]namedHandler(nil), b.subs[topic]...)
	b.mu.RUnlock()

	b.logger.Debug("list invalidated", "topic", topic, "id", evt.ID, "subscribers", len(subs))
	for _, s := range subs {
		if err := s.handler.HandleInvalidation(ctx, evt); err != nil {
			observability.LogError(ctx, b.logger, "invalidation handler failed", err, "handler", s.name, "topic", topic)
		}
	}
}

// Recorder counts invalidations per topic. Useful as a subscriber in tests
// and as the CLI's refresh log.
type Recorder struct {
	mu     sync.Mutex
	topics []string
}

// Invalidate records topic.
func (r *Recorder) Invalidate(_ context.Context, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

// HandleInvalidation records the event topic.
func (r *Recorder) HandleInvalidation(ctx context.Context, evt Invalidation) error {
	r.Invalidate(ctx, evt.Topic)
	return nil
}

// Topics returns the recorded topics in order.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

// Count returns how many times topic fired.
func (r *Recorder) Count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		if t == topic {
			n++
		}
	}
	return n
}
