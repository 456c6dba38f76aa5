// Package eventbus is an in-process publish/subscribe channel between the
// components of one console. It never crosses process boundaries.
//
// Delivery is synchronous and in subscription order. A failing or panicking
// handler is logged at debug level and does not stop delivery to the others.
package eventbus

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Handler func(payload any) error

type entry struct {
	id      uint64
	handler Handler
}

type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]entry
	closed bool
	logger *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		topics: make(map[string][]entry),
		logger: logger,
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
	once  sync.Once
}

// Subscribe registers h for topic. Subscribing to a closed bus returns an
// inert subscription.
func (b *Bus) Subscribe(topic string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &Subscription{}
	}
	b.nextID++
	b.topics[topic] = append(b.topics[topic], entry{id: b.nextID, handler: h})
	return &Subscription{bus: b, topic: topic, id: b.nextID}
}

// Unsubscribe removes the registration. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
	})
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.topics[topic]
	for i, e := range entries {
		if e.id == id {
			b.topics[topic] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

// Publish delivers payload to every handler of topic and returns how many of
// them completed without error.
func (b *Bus) Publish(topic string, payload any) int {
	b.mu.RLock()
	entries := make([]entry, len(b.topics[topic]))
	copy(entries, b.topics[topic])
	b.mu.RUnlock()

	delivered := 0
	for _, e := range entries {
		if err := b.call(e.handler, payload); err != nil {
			b.logger.Debug("Event handler failed",
				zap.String("topic", topic),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Bus) call(h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(payload)
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close drops every registration. Later subscriptions are inert.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.topics = make(map[string][]entry)
}
