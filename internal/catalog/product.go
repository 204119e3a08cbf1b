package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product exists for an id.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. The catalog is the authoritative owner of this
// data; the inventory service only ever sees the product-created envelope
// derived from it.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// Validate checks the fields a catalog write requires.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Quantity < 0 {
		return fmt.Errorf("quantity must be >= 0, got %d", p.Quantity)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("price must be >= 0, got %s", p.Price)
	}
	return nil
}

// Repository defines the interface for catalog persistence.
type Repository interface {
	// Create stores a new product. The caller assigns the id.
	Create(ctx context.Context, p *Product) error

	// GetByID returns ErrNotFound when no product exists.
	GetByID(ctx context.Context, id string) (*Product, error)

	// GetAll returns every product. Order is unspecified.
	GetAll(ctx context.Context) ([]*Product, error)

	// Update overwrites an existing product in place.
	// Returns ErrNotFound when no product exists for p.ID.
	Update(ctx context.Context, p *Product) (*Product, error)

	// Delete removes a product. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
