package handlers

import (
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Amount          decimal.Decimal        `json:"amount"`
	CustomerDetails domain.CustomerDetails `json:"customerDetails"`
	Items           []domain.CartItem      `json:"items"`
}

type OrderResponse struct {
	ID       string            `json:"id"`
	Currency string            `json:"currency"`
	Amount   int64             `json:"amount"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type VerifyResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

type NotifyRequest struct {
	CustomerDetails domain.CustomerDetails `json:"customerDetails"`
	Items           []domain.CartItem      `json:"items"`
	PaymentID       string                 `json:"paymentId"`
	OrderID         string                 `json:"orderId,omitempty"`
}

type Ack struct {
	Success bool `json:"success"`
}

type SubmitRequest struct {
	CustomerDetails domain.CustomerDetails `json:"customerDetails"`
}

type PaymentResultRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Failed    bool   `json:"failed"`
	Reason    string `json:"reason"`
}

type SessionResponse struct {
	ID        string                  `json:"id"`
	State     domain.SessionState     `json:"state"`
	Items     []domain.CartItem       `json:"items"`
	Total     string                  `json:"total"`
	Customer  *domain.CustomerDetails `json:"customer,omitempty"`
	Order     *OrderResponse          `json:"order,omitempty"`
	PaymentID string                  `json:"paymentId,omitempty"`
	ErrorCode string                  `json:"errorCode,omitempty"`
	LastError string                  `json:"lastError,omitempty"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

type SessionEnvelope struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Code    string           `json:"code,omitempty"`
	Session *SessionResponse `json:"session,omitempty"`
}

func toOrderResponse(o *domain.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	return &OrderResponse{
		ID:       o.ID,
		Currency: o.Currency,
		Amount:   o.Amount,
		Notes:    o.Notes,
	}
}

func toSessionResponse(s *domain.CheckoutSession) *SessionResponse {
	if s == nil {
		return nil
	}
	items := s.Cart.Snapshot()
	if items == nil {
		items = []domain.CartItem{}
	}
	return &SessionResponse{
		ID:        s.ID,
		State:     s.State,
		Items:     items,
		Total:     s.Total().StringFixed(2),
		Customer:  s.Customer,
		Order:     toOrderResponse(s.Order),
		PaymentID: s.PaymentID,
		ErrorCode: s.ErrorCode,
		LastError: s.LastError,
		UpdatedAt: s.UpdatedAt,
	}
}

// telegramUpdate is the part of a Bot API update the webhook reads.
type telegramUpdate struct {
	UpdateID        int64            `json:"update_id"`
	MessageReaction *messageReaction `json:"message_reaction"`
}

type messageReaction struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	MessageID   int64          `json:"message_id"`
	NewReaction []reactionType `json:"new_reaction"`
}

type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

func (r *messageReaction) emojis() []string {
	var out []string
	for _, rt := range r.NewReaction {
		if rt.Type == "emoji" {
			out = append(out, rt.Emoji)
		}
	}
	return out
}
