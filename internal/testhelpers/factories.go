package testhelpers

import (
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

func Customer() domain.CustomerDetails {
	return domain.CustomerDetails{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		City:    "Pune",
		State:   "Maharashtra",
		Zip:     "411001",
	}
}

func Item(name string, price int64) domain.CartItem {
	return domain.CartItem{Name: name, Price: decimal.NewFromInt(price)}
}

// OrderRecord builds a CREATED record for a single Rose Oud.
func OrderRecord(id string) *domain.OrderRecord {
	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	order := domain.Order{
		ID:       id,
		Receipt:  "receipt_order_" + id,
		Amount:   120000,
		Currency: "INR",
		Notes: map[string]string{
			"customer_name": "Asha Rao",
			"items":         `["Rose Oud"]`,
		},
		CreatedAt: createdAt,
	}
	return domain.NewOrderRecord(order, Customer(), []domain.CartItem{Item("Rose Oud", 1200)})
}
