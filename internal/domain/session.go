package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// SessionState represents where a checkout session is in its lifecycle
type SessionState string

const (
	StateIdle            SessionState = "IDLE"
	StateOrderCreating   SessionState = "ORDER_CREATING"
	StateAwaitingPayment SessionState = "AWAITING_PAYMENT"
	StateVerifying       SessionState = "VERIFYING"
	StateCompleted       SessionState = "COMPLETED"
	StateErrored         SessionState = "ERRORED"
)

// CheckoutSession is the server-side record of one buyer's checkout. Version
// is bumped by the session store on every write.
type CheckoutSession struct {
	ID        string           `json:"id"`
	State     SessionState     `json:"state"`
	Cart      Cart             `json:"cart"`
	Customer  *CustomerDetails `json:"customer,omitempty"`
	Order     *Order           `json:"order,omitempty"`
	PaymentID string           `json:"payment_id,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`
	LastError string           `json:"last_error,omitempty"`
	Deadline  *time.Time       `json:"deadline,omitempty"`
	Version   int64            `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewCheckoutSession(id string, now time.Time) *CheckoutSession {
	return &CheckoutSession{
		ID:        id,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *CheckoutSession) cartEditable() bool {
	return s.State == StateIdle || s.State == StateErrored
}

func (s *CheckoutSession) AddItem(item CartItem, now time.Time) (bool, error) {
	if !s.cartEditable() {
		return false, ErrCartLocked
	}
	added := s.Cart.Add(item)
	if added {
		s.UpdatedAt = now
	}
	return added, nil
}

func (s *CheckoutSession) RemoveItem(name string, now time.Time) (bool, error) {
	if !s.cartEditable() {
		return false, ErrCartLocked
	}
	removed := s.Cart.Remove(name)
	if removed {
		s.UpdatedAt = now
	}
	return removed, nil
}

// BeginOrder is the submission guard. A rejected submission leaves the
// session untouched.
func (s *CheckoutSession) BeginOrder(customer CustomerDetails, now, deadline time.Time) error {
	if err := s.canTransitionTo(StateOrderCreating); err != nil {
		return err
	}
	if err := customer.Validate(); err != nil {
		return err
	}
	if s.Cart.IsEmpty() {
		return ErrEmptyCart
	}

	s.State = StateOrderCreating
	s.Customer = &customer
	s.Order = nil
	s.clearError()
	s.Deadline = &deadline
	s.UpdatedAt = now
	return nil
}

func (s *CheckoutSession) OrderCreated(order Order, now time.Time) error {
	if err := s.transition(StateAwaitingPayment, now); err != nil {
		return err
	}
	s.Order = &order
	s.Deadline = nil
	return nil
}

func (s *CheckoutSession) BeginVerification(now, deadline time.Time) error {
	if err := s.transition(StateVerifying, now); err != nil {
		return err
	}
	s.Deadline = &deadline
	return nil
}

// Complete finishes the checkout and clears the cart and customer details.
func (s *CheckoutSession) Complete(paymentID string, now time.Time) error {
	if err := s.transition(StateCompleted, now); err != nil {
		return err
	}
	s.settle(paymentID)
	return nil
}

// CompleteLate completes a session that was failed while its payment for
// orderID was being verified. Any other errored session is rejected.
func (s *CheckoutSession) CompleteLate(orderID, paymentID string, now time.Time) error {
	if s.State != StateErrored || s.Order == nil || s.Order.ID != orderID {
		return NewInvalidTransitionError(s.State, StateCompleted)
	}
	s.State = StateCompleted
	s.UpdatedAt = now
	s.clearError()
	s.settle(paymentID)
	return nil
}

func (s *CheckoutSession) settle(paymentID string) {
	s.PaymentID = paymentID
	s.Cart.Clear()
	s.Customer = nil
	s.Deadline = nil
}

// Fail moves the session to ERRORED. The cart is kept so the buyer can retry.
func (s *CheckoutSession) Fail(code, message string, now time.Time) error {
	if err := s.transition(StateErrored, now); err != nil {
		return err
	}
	s.ErrorCode = code
	s.LastError = message
	s.Deadline = nil
	return nil
}

// Reset returns an errored session to IDLE for another attempt.
func (s *CheckoutSession) Reset(now time.Time) error {
	if err := s.transition(StateIdle, now); err != nil {
		return err
	}
	s.Order = nil
	s.clearError()
	return nil
}

func (s *CheckoutSession) clearError() {
	s.ErrorCode = ""
	s.LastError = ""
}

func (s *CheckoutSession) Total() decimal.Decimal {
	return s.Cart.Total()
}

// IsInFlight reports whether the session is waiting on a blocking call.
func (s *CheckoutSession) IsInFlight() bool {
	return s.State == StateOrderCreating || s.State == StateVerifying
}

func (s *CheckoutSession) Expired(now time.Time) bool {
	return s.IsInFlight() && s.Deadline != nil && now.After(*s.Deadline)
}

func (s *CheckoutSession) IsTerminal() bool {
	return s.State == StateCompleted
}

func (s *CheckoutSession) transition(target SessionState, now time.Time) error {
	if err := s.canTransitionTo(target); err != nil {
		return err
	}
	s.State = target
	s.UpdatedAt = now
	return nil
}

func (s *CheckoutSession) canTransitionTo(target SessionState) error {
	switch s.State {
	case StateIdle:
		return s.allow(target, StateOrderCreating)
	case StateOrderCreating:
		return s.allow(target, StateAwaitingPayment, StateErrored)
	case StateAwaitingPayment:
		return s.allow(target, StateVerifying, StateErrored)
	case StateVerifying:
		return s.allow(target, StateCompleted, StateErrored)
	case StateErrored:
		return s.allow(target, StateIdle)
	}
	return NewInvalidTransitionError(s.State, target)
}

func (s *CheckoutSession) allow(target SessionState, allowed ...SessionState) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(s.State, target)
}
