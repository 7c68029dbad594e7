// Package notify fans a paid order out to the shop's notification channels.
package notify

import (
	"context"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// Channel is one independent notification target. Send returns a
// *config.MissingConfigError when the channel is not configured.
type Channel interface {
	Name() string
	Send(ctx context.Context, event domain.NotificationEvent) (Delivery, error)
}

// Delivery carries what a channel learned while sending.
type Delivery struct {
	ChatMessageID *int64
}
