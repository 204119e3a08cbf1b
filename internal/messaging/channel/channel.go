// Package channel provides an in-process broker used for development and
// tests. It emulates the at-least-once contract of a real broker: a delivery
// stays pending until the subscriber commits it, and an uncommitted delivery
// is handed out again on the next Receive.
package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookstore-lab/bookstore/internal/messaging"
)

type message struct {
	key   []byte
	value []byte
}

func (m *message) Key() []byte   { return m.key }
func (m *message) Value() []byte { return m.value }

// Broker is an in-memory pub/sub broker. It implements messaging.Publisher
// directly; subscribers are created per topic with Subscribe. Messages
// published to a topic with no subscription are dropped (no retention).
type Broker struct {
	mu     sync.Mutex
	topics map[string][]*Subscription
	closed bool
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[string][]*Subscription)}
}

func (b *Broker) Publish(ctx context.Context, topic string, key, value []byte) error {
	if topic == "" {
		return fmt.Errorf("channel: topic must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return messaging.ErrClosed
	}
	subs := make([]*Subscription, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.Unlock()

	msg := &message{key: key, value: value}
	for _, sub := range subs {
		sub.enqueue(msg)
	}
	return nil
}

// Subscribe registers a new subscription on a topic. Each subscription
// receives its own copy of every message published after it was created,
// in publish order.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{notify: make(chan struct{}, 1)}

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()

	return sub
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.topics {
		for _, sub := range subs {
			sub.close()
		}
	}
	return nil
}

// Subscription implements messaging.Subscriber for one topic. While a
// delivery is pending (received but not committed), Receive keeps returning
// that same delivery; Commit releases it and exposes the next one.
type Subscription struct {
	mu      sync.Mutex
	backlog []*message
	pending *message
	notify  chan struct{}
	closed  bool
}

func (s *Subscription) enqueue(msg *message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.backlog = append(s.backlog, msg)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) Receive(ctx context.Context) (messaging.Delivery, error) {
	for {
		s.mu.Lock()
		if s.pending != nil {
			d := s.pending
			s.mu.Unlock()
			return d, nil
		}
		if len(s.backlog) > 0 {
			d := s.backlog[0]
			s.backlog = s.backlog[1:]
			s.pending = d
			s.mu.Unlock()
			return d, nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, messaging.ErrClosed
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		}
	}
}

func (s *Subscription) Commit(_ context.Context, d messaging.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := d.(*message)
	if !ok || msg != s.pending {
		return fmt.Errorf("channel: delivery is not the pending message of this subscription")
	}
	s.pending = nil
	return nil
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// Close marks the subscription closed. Remaining backlog is still drained by
// Receive before ErrClosed is returned.
func (s *Subscription) Close() error {
	s.close()
	return nil
}
