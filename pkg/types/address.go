package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// Address is a postal address persisted as JSONB.
type Address struct {
	FullName   string  `json:"full_name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country"`
}

// DefaultCountry is applied when an address omits its country.
const DefaultCountry = "IN"

// MissingFields returns the json names of required fields left blank.
func (a Address) MissingFields() []string {
	missing := []string{}
	required := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Value marshals Address into JSON for Postgres.
func (a Address) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Country) == "" {
		a.Country = DefaultCountry
	}
	return jsonbValue(a)
}

// Scan decodes JSONB into the address.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, err := jsonbBytes("address", value)
	if err != nil {
		return err
	}
	var decoded Address
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Equal compares two addresses field by field.
func (a Address) Equal(other Address) bool {
	line2 := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	return a.FullName == other.FullName &&
		a.Phone == other.Phone &&
		a.Line1 == other.Line1 &&
		line2(a.Line2) == line2(other.Line2) &&
		a.City == other.City &&
		a.State == other.State &&
		a.PostalCode == other.PostalCode &&
		a.Country == other.Country
}
