package razorpay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/sony/gobreaker/v2"
)

// BreakerClient stops calling the provider after consecutive server-side
// failures. Client errors (4xx) and cancellations do not count against it.
type BreakerClient struct {
	inner application.GatewayClient
	cb    *gobreaker.CircuitBreaker[*application.GatewayOrder]
}

type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func NewBreakerClient(inner application.GatewayClient, settings BreakerSettings, logger *slog.Logger) *BreakerClient {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout == 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*application.GatewayOrder](gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if gwErr, ok := application.IsGatewayError(err); ok {
				return !gwErr.IsRetryable()
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &BreakerClient{inner: inner, cb: cb}
}

func (b *BreakerClient) CreateOrder(ctx context.Context, req application.GatewayOrderRequest) (*application.GatewayOrder, error) {
	return b.cb.Execute(func() (*application.GatewayOrder, error) {
		return b.inner.CreateOrder(ctx, req)
	})
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
