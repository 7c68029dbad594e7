package domain

import (
	"strings"
)

type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

func (c CustomerDetails) fields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
		{"city", c.City},
		{"state", c.State},
		{"zip", c.Zip},
	}
}

// MissingFields lists the blank fields in form order.
func (c CustomerDetails) MissingFields() []string {
	var missing []string
	for _, f := range c.fields() {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate reports the first blank field.
func (c CustomerDetails) Validate() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return NewMissingRequiredFieldError(missing[0])
	}
	return nil
}

// FullAddress joins the postal fields the way the order notes carry them.
func (c CustomerDetails) FullAddress() string {
	return c.Address + ", " + c.City + ", " + c.State + " - " + c.Zip
}
