package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// NotificationService runs the dispatcher off the request path. Callers get
// no result; outcomes are only logged.
type NotificationService struct {
	dispatcher application.Dispatcher
	orders     application.OrderRepository
	timeout    time.Duration
	logger     *slog.Logger

	wg sync.WaitGroup
}

func NewNotificationService(
	dispatcher application.Dispatcher,
	orders application.OrderRepository,
	timeout time.Duration,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		orders:     orders,
		timeout:    timeout,
		logger:     logger,
	}
}

func (s *NotificationService) Notify(event domain.NotificationEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification dispatch panicked", "payment_id", event.PaymentID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.deliver(ctx, event)
	}()
}

func (s *NotificationService) deliver(ctx context.Context, event domain.NotificationEvent) {
	results := s.dispatcher.Dispatch(ctx, event)

	var sent, skipped, failed int
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Err != nil:
			failed++
		default:
			sent++
		}

		if r.ChatMessageID != nil && event.OrderID != "" {
			if err := s.orders.AttachChatMessage(ctx, event.OrderID, event.PaymentID, *r.ChatMessageID); err != nil {
				s.logger.Error("failed to link chat message to order",
					"order_id", event.OrderID,
					"payment_id", event.PaymentID,
					"chat_message_id", *r.ChatMessageID,
					"error", err)
			}
		}
	}

	s.logger.Info("order notifications dispatched",
		"payment_id", event.PaymentID,
		"order_id", event.OrderID,
		"sent", sent,
		"skipped", skipped,
		"failed", failed)
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
