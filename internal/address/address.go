package address

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeShipping Type = "SHIPPING"
	TypeBilling  Type = "BILLING"
	TypeBoth     Type = "BOTH"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(s)); t {
	case TypeShipping, TypeBilling, TypeBoth:
		return t, nil
	}
	return "", fmt.Errorf("unknown address type %q", s)
}

type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       Type      `json:"type"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Address1   string    `json:"address1"`
	Address2   *string   `json:"address2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Phone      *string   `json:"phone,omitempty"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Input struct {
	Type       string  `json:"type"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Address1   string  `json:"address1"`
	Address2   *string `json:"address2"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postalCode"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone"`
	IsDefault  bool    `json:"isDefault"`
}

func (in Input) Validate() map[string]string {
	errs := map[string]string{}
	if in.Type != "" {
		if _, err := ParseType(in.Type); err != nil {
			errs["type"] = "Type must be SHIPPING, BILLING or BOTH"
		}
	}
	required := []struct{ field, value, label string }{
		{"firstName", in.FirstName, "First name"},
		{"lastName", in.LastName, "Last name"},
		{"address1", in.Address1, "Address"},
		{"city", in.City, "City"},
		{"state", in.State, "State"},
		{"postalCode", in.PostalCode, "Postal code"},
		{"country", in.Country, "Country"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs[r.field] = r.label + " is required"
		}
	}
	return errs
}
