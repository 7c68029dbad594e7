package handlers

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

type CheckoutService interface {
	StartSession(ctx context.Context) (*domain.CheckoutSession, error)
	GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	AddItem(ctx context.Context, id string, item domain.CartItem) (*domain.CheckoutSession, error)
	RemoveItem(ctx context.Context, id, name string) (*domain.CheckoutSession, error)
	Submit(ctx context.Context, id string, customer domain.CustomerDetails) (*domain.CheckoutSession, error)
	CompletePayment(ctx context.Context, id string, cmd services.PaymentResultCommand) (*domain.CheckoutSession, error)
	Retry(ctx context.Context, id string) (*domain.CheckoutSession, error)
}

type ReactionHandler interface {
	HandleReaction(ctx context.Context, cmd services.ReactionCommand) (bool, error)
}

type Handlers struct {
	orders        services.OrderCreator
	verifier      services.PaymentVerifier
	notifier      application.Notifier
	checkout      CheckoutService
	reactions     ReactionHandler
	currency      string
	webhookSecret string
	clock         clock.Clock
	logger        *slog.Logger
}

type Config struct {
	Currency      string
	WebhookSecret string
}

func NewHandlers(
	orders services.OrderCreator,
	verifier services.PaymentVerifier,
	notifier application.Notifier,
	checkout CheckoutService,
	reactions ReactionHandler,
	cfg Config,
	clk clock.Clock,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		orders:        orders,
		verifier:      verifier,
		notifier:      notifier,
		checkout:      checkout,
		reactions:     reactions,
		currency:      cfg.Currency,
		webhookSecret: cfg.WebhookSecret,
		clock:         clk,
		logger:        logger,
	}
}
