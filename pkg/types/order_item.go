package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of a purchased product taken at checkout.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ArtisanID   uuid.UUID       `json:"artisan_id"`
	ArtisanName string          `json:"artisan_name"`
	Name        string          `json:"name"`
	Image       *string         `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderItems persists the snapshot list as a JSONB array.
type OrderItems []OrderItem

// Contains reports whether any line references the product.
func (items OrderItems) Contains(productID uuid.UUID) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Value marshals the list into JSON for Postgres.
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return jsonbValue([]OrderItem(items))
}

// Scan decodes a JSONB array into the list.
func (items *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*items = nil
		return nil
	}
	raw, err := jsonbBytes("order items", value)
	if err != nil {
		return err
	}
	var decoded []OrderItem
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*items = decoded
	return nil
}
