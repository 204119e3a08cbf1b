package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookstore-lab/bookstore/internal/catalog"
)

// MemoryRepository is an in-memory implementation of catalog.Repository.
// Useful for development and testing.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*catalog.Product
}

// NewMemoryRepository creates an empty in-memory catalog repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]*catalog.Product)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return fmt.Errorf("product %q already exists", p.ID)
	}

	copy := *p
	r.products[p.ID] = &copy
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.products[id]
	if !exists {
		return nil, catalog.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

func (r *MemoryRepository) GetAll(ctx context.Context) ([]*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		copy := *p
		result = append(result, &copy)
	}
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; !exists {
		return nil, catalog.ErrNotFound
	}

	copy := *p
	r.products[p.ID] = &copy
	result := copy
	return &result, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return catalog.ErrNotFound
	}

	delete(r.products, id)
	return nil
}
