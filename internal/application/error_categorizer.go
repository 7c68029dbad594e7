package application

import (
	"context"
	"errors"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryConfiguration  ErrorCategory = "CONFIGURATION"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if _, ok := config.IsMissingConfig(err); ok {
		return CategoryConfiguration
	}

	if errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrCartLocked) ||
		errors.Is(err, domain.ErrAmountMismatch) ||
		errors.Is(err, domain.ErrConcurrentUpdate) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrMissingRequiredField) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrOrderNotFound) {
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeGatewayNotConfigured, ErrCodeVerificationUnavailable:
			return CategoryConfiguration
		case ErrCodeInvalidInput, ErrCodeAmountMismatch, ErrCodeSessionNotFound:
			return CategoryClientError
		case ErrCodeVerificationFailed, ErrCodePaymentFailed, ErrCodeInvalidState, ErrCodeSessionConflict:
			return CategoryBusinessRule
		case ErrCodeInternal:
			return CategoryInfrastructure
		case ErrCodeTimeout, ErrCodeOrderCreationFailed:
			return CategoryTransient
		}
	}

	if gwErr, ok := IsGatewayError(err); ok {
		if gwErr.IsRetryable() {
			return CategoryTransient
		}

		switch gwErr.Code {
		case "BAD_REQUEST_ERROR":
			return CategoryPermanent
		case "GATEWAY_ERROR", "SERVER_ERROR":
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToServiceError maps domain and store errors onto the HTTP-facing error.
func ToServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return NewSessionNotFoundError(err)
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return NewSessionConflictError(err)
	case errors.Is(err, domain.ErrAmountMismatch):
		return NewAmountMismatchError(err)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCartLocked):
		return NewInvalidStateError(err)
	case errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptyCart):
		return NewInvalidInputError(err)
	}

	return NewInternalError(err)
}
