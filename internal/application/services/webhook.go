package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

const shippedReaction = "👍"

// ChatWebhookService turns the owner's thumbs-up on an order message into a
// shipping email for the customer.
type ChatWebhookService struct {
	chatID int64
	orders application.OrderRepository
	mailer application.ShippingMailer
	clock  clock.Clock
	logger *slog.Logger
}

func NewChatWebhookService(
	chatID int64,
	orders application.OrderRepository,
	mailer application.ShippingMailer,
	clk clock.Clock,
	logger *slog.Logger,
) *ChatWebhookService {
	return &ChatWebhookService{
		chatID: chatID,
		orders: orders,
		mailer: mailer,
		clock:  clk,
		logger: logger,
	}
}

// HandleReaction reports whether the reaction shipped an order. Reactions
// that do not apply are ignored without error.
func (s *ChatWebhookService) HandleReaction(ctx context.Context, cmd ReactionCommand) (bool, error) {
	logger := s.logger.With("chat_id", cmd.ChatID, "message_id", cmd.MessageID)

	if s.chatID == 0 || cmd.ChatID != s.chatID {
		logger.Debug("ignoring reaction from unknown chat")
		return false, nil
	}
	if !slices.Contains(cmd.Emojis, shippedReaction) {
		return false, nil
	}

	rec, err := s.orders.FindByChatMessageID(ctx, cmd.MessageID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		logger.Info("reaction on a message with no order")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger = logger.With("order_id", rec.ID)
	if rec.Status != domain.OrderStatusPaid {
		logger.Info("order is not awaiting shipment", "status", rec.Status)
		return false, nil
	}

	if err := s.mailer.SendShipped(ctx, rec); err != nil {
		logger.Error("failed to send shipping email", "error", err)
		return false, err
	}

	if err := rec.MarkShipped(s.clock.Now()); err != nil {
		return false, err
	}
	if err := s.orders.UpdateStatus(ctx, rec); err != nil {
		logger.Error("shipping email sent but order status not saved", "error", err)
		return true, err
	}

	logger.Info("order marked shipped")
	return true, nil
}
