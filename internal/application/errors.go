package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

// ServiceError is what crosses the HTTP boundary. Message is safe to show to
// a buyer; Err is only ever logged.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Handled reports whether the error is an expected checkout outcome that is
// returned with 200 and success=false.
func (e *ServiceError) Handled() bool {
	return e.HTTPStatus == http.StatusOK
}

const (
	ErrCodeGatewayNotConfigured    = "GATEWAY_NOT_CONFIGURED"
	ErrCodeOrderCreationFailed     = "ORDER_CREATION_FAILED"
	ErrCodeVerificationUnavailable = "VERIFICATION_UNAVAILABLE"
	ErrCodeVerificationFailed      = "VERIFICATION_FAILED"
	ErrCodePaymentFailed           = "PAYMENT_FAILED"
	ErrCodeTimeout                 = "TIMEOUT"
	ErrCodeInvalidInput            = "INVALID_INPUT"
	ErrCodeAmountMismatch          = "AMOUNT_MISMATCH"
	ErrCodeSessionNotFound         = "SESSION_NOT_FOUND"
	ErrCodeInvalidState            = "INVALID_STATE"
	ErrCodeSessionConflict         = "SESSION_CONFLICT"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

func NewGatewayNotConfiguredError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayNotConfigured,
		Message:    "Payment gateway is not configured.",
		HTTPStatus: http.StatusOK,
		Err:        err,
	}
}

func NewOrderCreationFailedError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOrderCreationFailed,
		Message:    "Could not create order. Please try again.",
		HTTPStatus: http.StatusOK,
		Err:        err,
	}
}

func NewVerificationUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeVerificationUnavailable,
		Message:    "Cannot verify payment.",
		HTTPStatus: http.StatusOK,
		Err:        err,
	}
}

func NewVerificationFailedError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeVerificationFailed,
		Message:    "Payment verification failed.",
		HTTPStatus: http.StatusOK,
	}
}

func NewPaymentFailedError(reason string) *ServiceError {
	msg := "Payment was not completed."
	if reason != "" {
		msg = "Payment was not completed: " + reason
	}
	return &ServiceError{
		Code:       ErrCodePaymentFailed,
		Message:    msg,
		HTTPStatus: http.StatusOK,
	}
}

func NewTimeoutError(operation string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeTimeout,
		Message:    fmt.Sprintf("Timed out while %s. Please try again.", operation),
		HTTPStatus: http.StatusOK,
		Err:        err,
	}
}

// NewInvalidInputError keeps the domain message, which only ever names the
// offending field.
func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewMalformedRequestError hides err from the client and names at most the
// offending field.
func NewMalformedRequestError(field string, err error) *ServiceError {
	message := "Malformed request."
	if field != "" {
		message = fmt.Sprintf("Malformed request: invalid %s.", field)
	}
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewAmountMismatchError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeAmountMismatch,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewSessionNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeSessionNotFound,
		Message:    "Checkout session not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    err.Error(),
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewSessionConflictError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeSessionConflict,
		Message:    "Checkout session was updated by another request. Please retry.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// GatewayError is a non-2xx answer from the payment provider.
type GatewayError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Description, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
