// Package domain holds the storefront's checkout entities: the cart, the
// customer, gateway orders and the checkout session state machine.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is identified by its name. Prices are in major units.
type CartItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func NewCartItem(name string, price decimal.Decimal) (CartItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CartItem{}, NewMissingRequiredFieldError("item name")
	}
	if !price.IsPositive() {
		return CartItem{}, NewInvalidAmountError(price.String())
	}
	return CartItem{Name: name, Price: price}, nil
}

// Cart is an insertion-ordered set of items keyed by name.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Add appends the item unless one with the same name is already present.
func (c *Cart) Add(item CartItem) bool {
	if c.Contains(item.Name) {
		return false
	}
	c.Items = append(c.Items, item)
	return true
}

func (c *Cart) Remove(name string) bool {
	for i, item := range c.Items {
		if item.Name == name {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) Contains(name string) bool {
	for _, item := range c.Items {
		if item.Name == name {
			return true
		}
	}
	return false
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) Total() decimal.Decimal {
	return TotalOf(c.Items)
}

func (c Cart) Names() []string {
	return NamesOf(c.Items)
}

// Snapshot returns a copy of the items safe to hand to another goroutine.
func (c Cart) Snapshot() []CartItem {
	if len(c.Items) == 0 {
		return nil
	}
	out := make([]CartItem, len(c.Items))
	copy(out, c.Items)
	return out
}

func TotalOf(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total
}

func NamesOf(items []CartItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}
