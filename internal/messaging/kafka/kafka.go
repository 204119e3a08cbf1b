package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookstore-lab/bookstore/internal/messaging"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher implements messaging.Publisher on top of a shared kafka-go writer.
// The writer is created without a fixed topic so the topic can be chosen per
// publish call; messages are keyed so Kafka preserves per-key ordering within
// a partition.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher for the given bootstrap brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Balancer: &kafkago.Hash{},
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	if topic == "" {
		return fmt.Errorf("kafka: topic must not be empty")
	}
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka: failed to publish to %q: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// delivery wraps a kafka message so the consumer loop can hand it back to
// Commit without knowing about kafka-go.
type delivery struct {
	msg kafkago.Message
}

func (d *delivery) Key() []byte   { return d.msg.Key }
func (d *delivery) Value() []byte { return d.msg.Value }

// Subscriber implements messaging.Subscriber over a kafka-go reader with
// manual offset commits. Offsets are committed only through Commit, so an
// unacknowledged message is redelivered after a restart or rebalance.
type Subscriber struct {
	reader *kafkago.Reader
}

// NewSubscriber creates a consumer-group subscriber for one topic.
func NewSubscriber(brokers []string, topic, groupID string) *Subscriber {
	return &Subscriber{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

func (s *Subscriber) Receive(ctx context.Context) (messaging.Delivery, error) {
	msg, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka: fetch failed: %w", err)
	}
	slog.Debug("[Kafka] Fetched message",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset)
	return &delivery{msg: msg}, nil
}

func (s *Subscriber) Commit(ctx context.Context, d messaging.Delivery) error {
	kd, ok := d.(*delivery)
	if !ok {
		return fmt.Errorf("kafka: delivery %T was not produced by this subscriber", d)
	}
	if err := s.reader.CommitMessages(ctx, kd.msg); err != nil {
		return fmt.Errorf("kafka: commit failed: %w", err)
	}
	return nil
}

func (s *Subscriber) Close() error {
	return s.reader.Close()
}
