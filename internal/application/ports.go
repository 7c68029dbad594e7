package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// GatewayOrderRequest is the provider's order-creation payload. Amount is in
// minor units.
type GatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type GatewayOrder struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// GatewayClient is the port for the external payment provider.
type GatewayClient interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
}

// GatewayProvider hands out a client per request. Client returns a
// *config.MissingConfigError when credentials are absent.
type GatewayProvider interface {
	Client() (GatewayClient, error)
	Currency() string
}

// SecretProvider yields the signing secret, or a configuration error.
type SecretProvider interface {
	Secret() (string, error)
}

// OrderRepository is the port for persisted order records.
type OrderRepository interface {
	Save(ctx context.Context, rec *domain.OrderRecord) error
	FindByID(ctx context.Context, id string) (*domain.OrderRecord, error)
	FindByChatMessageID(ctx context.Context, messageID int64) (*domain.OrderRecord, error)
	UpdateStatus(ctx context.Context, rec *domain.OrderRecord) error
	// AttachChatMessage links a chat message to a PAID order whose payment
	// id matches and which has no message yet. Anything else returns
	// domain.ErrChatLinkRejected.
	AttachChatMessage(ctx context.Context, orderID, paymentID string, messageID int64) error
}

// SessionStore persists checkout sessions. Update loads the session, applies
// fn and writes it back only if nobody else wrote in between; a lost race
// returns domain.ErrConcurrentUpdate. If fn fails nothing is written.
type SessionStore interface {
	Create(ctx context.Context, s *domain.CheckoutSession) error
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Update(ctx context.Context, id string, fn func(s *domain.CheckoutSession) error) (*domain.CheckoutSession, error)
	ExpiredInFlight(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// ChannelResult is the outcome of one notification channel.
type ChannelResult struct {
	Channel string
	Skipped bool
	Err     error
	// ChatMessageID is set by the chat channel.
	ChatMessageID *int64
}

// Dispatcher sends an event to every channel and reports per-channel results.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.NotificationEvent) []ChannelResult
}

// Notifier is the fire-and-forget entry point used after a verified payment.
type Notifier interface {
	Notify(event domain.NotificationEvent)
}

// ShippingMailer tells the customer their order is on its way.
type ShippingMailer interface {
	SendShipped(ctx context.Context, rec *domain.OrderRecord) error
}
