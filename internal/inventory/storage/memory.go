package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bookstore-lab/bookstore/internal/inventory"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of inventory.Store.
// Useful for development and testing.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*inventory.Record

	// nowFn is swappable in tests.
	nowFn func() time.Time
}

// NewMemoryStore creates an empty in-memory inventory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*inventory.Record),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, exists := s.records[productID]; exists {
		rec.Quantity = quantity
		rec.LastUpdated = s.nowFn()
		return nil
	}

	s.records[productID] = &inventory.Record{
		ID:          uuid.NewString(),
		ProductID:   productID,
		Quantity:    quantity,
		LastUpdated: s.nowFn(),
	}
	return nil
}

func (s *MemoryStore) GetByProductID(ctx context.Context, productID string) (*inventory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[productID]
	if !exists {
		return nil, inventory.ErrNotFound
	}

	// Return a copy to prevent external modification.
	copy := *rec
	return &copy, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*inventory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*inventory.Record, 0, len(s.records))
	for _, rec := range s.records {
		copy := *rec
		result = append(result, &copy)
	}
	return result, nil
}
