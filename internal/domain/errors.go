package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so the sentinels below
// work with errors.Is regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Domain validation errors
const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeAmountMismatch       = "AMOUNT_MISMATCH"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeCartLocked           = "CART_LOCKED"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	ErrCodeChatLinkRejected     = "CHAT_LINK_REJECTED"
)

var (
	ErrInvalidTransition    = &DomainError{Code: ErrCodeInvalidTransition, Message: "invalid state transition"}
	ErrInvalidAmount        = &DomainError{Code: ErrCodeInvalidAmount, Message: "invalid amount"}
	ErrAmountMismatch       = &DomainError{Code: ErrCodeAmountMismatch, Message: "amount mismatch"}
	ErrMissingRequiredField = &DomainError{Code: ErrCodeMissingRequiredField, Message: "missing required field"}
	ErrEmptyCart            = &DomainError{Code: ErrCodeEmptyCart, Message: "at least one item is required"}
	ErrCartLocked           = &DomainError{Code: ErrCodeCartLocked, Message: "cart cannot change while checkout is in progress"}
	ErrOrderNotFound        = &DomainError{Code: ErrCodeOrderNotFound, Message: "order not found"}
	ErrSessionNotFound      = &DomainError{Code: ErrCodeSessionNotFound, Message: "checkout session not found"}
	ErrConcurrentUpdate     = &DomainError{Code: ErrCodeConcurrentUpdate, Message: "checkout session was modified concurrently"}
	ErrChatLinkRejected     = &DomainError{Code: ErrCodeChatLinkRejected, Message: "chat message cannot be linked to order"}
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidAmountError(amount string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s", amount),
	}
}

func NewAmountMismatchError(expected, actual string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAmountMismatch,
		Message: fmt.Sprintf("amount mismatch: expected %s, got %s", expected, actual),
	}
}

func NewInvalidTransitionError(from, to SessionState) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewOrderNotFoundError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order %s not found", key),
	}
}

func NewSessionNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("checkout session %s not found", id),
	}
}

func NewChatLinkRejectedError(orderID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeChatLinkRejected,
		Message: fmt.Sprintf("order %s is not paid by this payment or is already linked", orderID),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
