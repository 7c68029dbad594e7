package services

import (
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderCommand carries a checkout submission. Amount is in major units.
type CreateOrderCommand struct {
	Amount   decimal.Decimal
	Customer domain.CustomerDetails
	Items    []domain.CartItem
}

// PaymentResultCommand is what the hosted payment UI reported. Exactly one of
// Confirmation or Failed is expected.
type PaymentResultCommand struct {
	Confirmation *domain.PaymentConfirmation
	Failed       bool
	Reason       string
}

// ReactionCommand is an emoji reaction on a chat message.
type ReactionCommand struct {
	ChatID    int64
	MessageID int64
	Emojis    []string
}

type VerificationResult struct {
	Valid     bool
	PaymentID string
	Reason    string
}
