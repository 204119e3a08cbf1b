package catalog

import (
	"context"
	"log/slog"

	v1 "github.com/bookstore-lab/bookstore/internal/api/v1"
	"github.com/bookstore-lab/bookstore/internal/messaging"
	"github.com/google/uuid"
)

// Service implements the catalog use cases. Create additionally publishes a
// ProductCreatedEvent to the products topic as a best-effort side effect: the
// catalog write is authoritative and is reported successful even when the
// publish fails, so callers must not assume inventory immediately reflects a
// just-created product.
type Service struct {
	repo      Repository
	publisher messaging.Publisher
	topic     string
}

// NewService wires the catalog repository to the event publisher.
// topic names the channel product-created envelopes are published to.
func NewService(repo Repository, publisher messaging.Publisher, topic string) *Service {
	if repo == nil {
		panic("catalog: repository must not be nil")
	}
	if publisher == nil {
		panic("catalog: publisher must not be nil")
	}
	if topic == "" {
		panic("catalog: topic must not be empty")
	}
	return &Service{repo: repo, publisher: publisher, topic: topic}
}

// Create persists the product, then publishes the product-created envelope.
// A publish failure is logged and swallowed, never rolled back into the
// catalog write.
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, p)

	slog.Info("Product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// publishCreated is fire-and-forget: errors are captured for operational
// visibility only.
func (s *Service) publishCreated(ctx context.Context, p *Product) {
	evt := v1.ProductCreatedEvent{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
	}

	payload, err := evt.Encode()
	if err != nil {
		slog.Error("Failed to encode product-created envelope",
			"error", err,
			"product_id", p.ID)
		return
	}

	if err := s.publisher.Publish(ctx, s.topic, []byte(p.ID), payload); err != nil {
		slog.Error("Failed to publish product-created envelope",
			"error", err,
			"product_id", p.ID,
			"topic", s.topic)
		return
	}

	slog.Info("Published product-created envelope",
		"product_id", p.ID,
		"topic", s.topic)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetAll(ctx context.Context) ([]*Product, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) Update(ctx context.Context, p *Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
