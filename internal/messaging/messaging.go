package messaging

import (
	"context"
	"errors"
)

// ErrClosed is returned by Receive when the broker or subscription has been
// closed and no further deliveries will arrive.
var ErrClosed = errors.New("messaging: closed")

// Delivery is a single message received from a topic. Value carries the wire
// bytes of the envelope; Key carries the partitioning key when the broker
// supports one.
type Delivery interface {
	Key() []byte
	Value() []byte
}

// Publisher emits envelopes to a named topic. Publish blocks on broker-accept
// only, never on downstream consumer processing.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// Subscriber is a long-lived consumer of one topic. Receive blocks until a
// message is available or ctx is cancelled. A delivery must be passed back to
// Commit only after it has been applied successfully; an uncommitted delivery
// remains eligible for redelivery per broker policy (at-least-once).
type Subscriber interface {
	Receive(ctx context.Context) (Delivery, error)
	Commit(ctx context.Context, d Delivery) error
	Close() error
}
