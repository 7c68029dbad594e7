package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the provider-side order. Amount is in minor units.
type Order struct {
	ID        string            `json:"id"`
	Receipt   string            `json:"receipt"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Notes     map[string]string `json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
}

func (o Order) MajorAmount() decimal.Decimal {
	return FromMinorUnits(o.Amount)
}

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "CREATED"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusShipped OrderStatus = "SHIPPED"
)

// OrderRecord is our copy of an order together with the checkout data the
// notification channels and the chat webhook need later.
type OrderRecord struct {
	Order
	Customer      CustomerDetails
	Items         []CartItem
	Total         decimal.Decimal
	Status        OrderStatus
	PaymentID     *string
	ChatMessageID *int64
	PaidAt        *time.Time
	ShippedAt     *time.Time
	UpdatedAt     time.Time
}

func NewOrderRecord(order Order, customer CustomerDetails, items []CartItem) *OrderRecord {
	return &OrderRecord{
		Order:     order,
		Customer:  customer,
		Items:     slices.Clone(items),
		Total:     TotalOf(items),
		Status:    OrderStatusCreated,
		UpdatedAt: order.CreatedAt,
	}
}

func (r *OrderRecord) MarkPaid(paymentID string, paidAt time.Time) error {
	if r.Status != OrderStatusCreated {
		return ErrInvalidTransition
	}
	r.Status = OrderStatusPaid
	r.PaymentID = &paymentID
	r.PaidAt = &paidAt
	r.UpdatedAt = paidAt
	return nil
}

func (r *OrderRecord) MarkShipped(shippedAt time.Time) error {
	if r.Status != OrderStatusPaid {
		return ErrInvalidTransition
	}
	r.Status = OrderStatusShipped
	r.ShippedAt = &shippedAt
	r.UpdatedAt = shippedAt
	return nil
}

// LinkChatMessage records the shop chat message announcing this order. Only a
// paid order can be linked, only once, and only by its own payment.
func (r *OrderRecord) LinkChatMessage(paymentID string, messageID int64) error {
	if r.Status != OrderStatusPaid || r.PaymentID == nil || *r.PaymentID != paymentID || r.ChatMessageID != nil {
		return NewChatLinkRejectedError(r.ID)
	}
	r.ChatMessageID = &messageID
	return nil
}

// PaymentConfirmation is what the hosted payment UI hands back on success.
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (c PaymentConfirmation) Complete() bool {
	return strings.TrimSpace(c.OrderID) != "" &&
		strings.TrimSpace(c.PaymentID) != "" &&
		strings.TrimSpace(c.Signature) != ""
}

// NotificationEvent is the read-only view fanned out after a verified payment.
type NotificationEvent struct {
	OrderID    string          `json:"order_id,omitempty"`
	PaymentID  string          `json:"payment_id"`
	Customer   CustomerDetails `json:"customer"`
	Items      []CartItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewNotificationEvent(
	orderID string,
	paymentID string,
	customer CustomerDetails,
	items []CartItem,
	currency string,
	occurredAt time.Time,
) NotificationEvent {
	return NotificationEvent{
		OrderID:    orderID,
		PaymentID:  paymentID,
		Customer:   customer,
		Items:      slices.Clone(items),
		Total:      TotalOf(items),
		Currency:   currency,
		OccurredAt: occurredAt,
	}
}

func (e NotificationEvent) ShortPaymentID() string {
	return ShortID(e.PaymentID)
}

// ShortID is the last six characters of an id, used in subject lines.
func ShortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
