package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Dispatcher sends an event to every channel concurrently. A channel's
// failure is logged and reported in its result; it never affects the others.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.NotificationEvent) []application.ChannelResult {
	results := make([]application.ChannelResult, len(d.channels))

	var g errgroup.Group
	for i, ch := range d.channels {
		g.Go(func() error {
			results[i] = d.send(ctx, ch, ev)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, ev domain.NotificationEvent) (result application.ChannelResult) {
	result.Channel = ch.Name()
	logger := d.logger.With("channel", ch.Name(), "payment_id", ev.PaymentID, "order_id", ev.OrderID)

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("channel panicked: %v", r)
			logger.Error("notification channel panicked", "panic", r)
		}
	}()

	delivery, err := ch.Send(ctx, ev)
	if cfgErr, ok := config.IsMissingConfig(err); ok {
		result.Skipped = true
		logger.Warn("notification channel not configured, skipping",
			"missing", cfgErr.Missing,
			"invalid", cfgErr.Invalid)
		return result
	}
	if err != nil {
		result.Err = err
		logger.Error("notification failed",
			"error", err,
			"category", application.CategorizeError(err))
		return result
	}

	result.ChatMessageID = delivery.ChatMessageID
	logger.Info("notification sent")
	return result
}
