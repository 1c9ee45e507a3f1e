package types

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"time"
)

// PendingChanges describes edits to protected artisan fields awaiting review.
type PendingChanges struct {
	HasChanges    bool           `json:"has_changes"`
	ChangedAt     time.Time      `json:"changed_at"`
	ChangedFields []string       `json:"changed_fields"`
	Changes       map[string]any `json:"changes"`
}

// Merge folds a new change set into the existing one. Fields are unioned and
// the latest value wins.
func (p PendingChanges) Merge(fields []string, values map[string]any, at time.Time) PendingChanges {
	seen := make(map[string]struct{}, len(p.ChangedFields)+len(fields))
	merged := PendingChanges{
		HasChanges: true,
		ChangedAt:  at,
		Changes:    make(map[string]any, len(p.Changes)+len(values)),
	}
	for _, field := range append(append([]string{}, p.ChangedFields...), fields...) {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		merged.ChangedFields = append(merged.ChangedFields, field)
	}
	sort.Strings(merged.ChangedFields)
	for k, v := range p.Changes {
		merged.Changes[k] = v
	}
	for k, v := range values {
		merged.Changes[k] = v
	}
	return merged
}

func (p PendingChanges) Value() (driver.Value, error) {
	return jsonbValue(p)
}

func (p *PendingChanges) Scan(value interface{}) error {
	if value == nil {
		*p = PendingChanges{}
		return nil
	}
	raw, err := jsonbBytes("pending changes", value)
	if err != nil {
		return err
	}
	var decoded PendingChanges
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*p = decoded
	return nil
}
