package v1

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductCreatedEvent is the envelope published to the broker after a product
// is created in the catalog. It is a transient message, never persisted; the
// inventory record is the durable projection derived from a stream of these.
//
// Field names are PascalCase on the wire for compatibility with the existing
// consumers of the products topic. Price is informational only; Quantity is
// the authoritative initial stock count.
type ProductCreatedEvent struct {
	// ID is the product identifier, stable across services. It is the
	// natural key the inventory projection upserts by.
	ID string `json:"Id"`

	// Name is the display name at creation time. Informational only.
	Name string `json:"Name"`

	// Price at creation time. Informational only, not used for consistency.
	Price decimal.Decimal `json:"Price"`

	// Quantity is the authoritative initial stock count. Must be >= 0.
	Quantity int `json:"Quantity"`
}

// Validate ensures the envelope is well-formed before it is applied.
func (e *ProductCreatedEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("Id is required")
	}
	if e.Quantity < 0 {
		return fmt.Errorf("Quantity must be >= 0, got %d", e.Quantity)
	}
	return nil
}

// Encode serializes the envelope to its UTF-8 JSON wire form.
func (e *ProductCreatedEvent) Encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return payload, nil
}

// DecodeProductCreatedEvent parses wire bytes into an envelope and validates it.
// Unknown fields are ignored for forward compatibility; an absent Quantity
// decodes to 0.
func DecodeProductCreatedEvent(payload []byte) (*ProductCreatedEvent, error) {
	var e ProductCreatedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	return &e, nil
}
