package razorpay

import (
	"log/slog"
	"sync"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/config"
)

// Factory builds the gateway client on first use. A missing credential is
// reported on every call instead of failing process start, and the decorated
// client (retry inside breaker) is shared once it exists so the breaker sees
// all traffic.
type Factory struct {
	cfg    config.GatewayConfig
	retry  config.RetryConfig
	logger *slog.Logger

	mu     sync.Mutex
	client application.GatewayClient
}

func NewFactory(cfg config.GatewayConfig, retry config.RetryConfig, logger *slog.Logger) *Factory {
	return &Factory{cfg: cfg, retry: retry, logger: logger}
}

func (f *Factory) Client() (application.GatewayClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}

	var client application.GatewayClient = NewClient(f.cfg)
	client = NewRetryClient(client, f.retry)
	client = NewBreakerClient(client, BreakerSettings{}, f.logger)

	f.client = client
	return f.client, nil
}

func (f *Factory) Currency() string {
	return f.cfg.Currency
}

// Secret satisfies application.SecretProvider. It only needs the key secret.
func (f *Factory) Secret() (string, error) {
	return f.cfg.Secret()
}
