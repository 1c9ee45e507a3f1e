package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StatusEntry records the first time an order entered a status.
type StatusEntry struct {
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
}

// StatusHistory is the append-only order status log persisted as JSONB.
type StatusHistory []StatusEntry

// Has reports whether an entry already carries the status.
func (h StatusHistory) Has(status string) bool {
	for _, entry := range h {
		if entry.Status == status {
			return true
		}
	}
	return false
}

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return jsonbValue([]StatusEntry(h))
}

func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	raw, err := jsonbBytes("status history", value)
	if err != nil {
		return err
	}
	var decoded []StatusEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*h = decoded
	return nil
}
