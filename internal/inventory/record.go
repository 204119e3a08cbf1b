package inventory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a product id.
var ErrNotFound = errors.New("inventory record not found")

// Record is the durable projection of the product-created event stream:
// one row per product id, last-write-wins by arrival order.
type Record struct {
	// ID is a surrogate identifier generated on first insert.
	ID string `json:"id"`

	// ProductID is the natural key. Exactly one record exists per product id
	// ever observed.
	ProductID string `json:"product_id"`

	// Quantity is the current authoritative stock count.
	Quantity int `json:"quantity"`

	// LastUpdated is refreshed on every upsert, including no-op re-applies.
	LastUpdated time.Time `json:"last_updated"`
}

// Store is the contract every inventory backend must satisfy. Upsert is
// idempotent and provides per-key atomicity: concurrent upserts for distinct
// product ids never interfere, concurrent upserts for the same product id
// serialize to whichever write lands last. This property is what makes
// at-least-once delivery safe to replay.
type Store interface {
	// Upsert creates the record on first sight of productID and overwrites
	// quantity in place on every subsequent call. Never produces a second
	// record for the same productID.
	Upsert(ctx context.Context, productID string, quantity int) error

	// GetByProductID returns ErrNotFound when no record exists.
	GetByProductID(ctx context.Context, productID string) (*Record, error)

	// List returns all records. Order is unspecified.
	List(ctx context.Context) ([]*Record, error)
}
