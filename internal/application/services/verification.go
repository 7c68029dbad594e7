package services

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/DanielPopoola/creski-storefront/internal/signature"
)

const verificationFailedReason = "Payment verification failed."

// VerificationService checks the completion callback of the hosted payment UI.
type VerificationService struct {
	secrets application.SecretProvider
	orders  application.OrderRepository
	clock   clock.Clock
	logger  *slog.Logger
}

func NewVerificationService(
	secrets application.SecretProvider,
	orders application.OrderRepository,
	clk clock.Clock,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		secrets: secrets,
		orders:  orders,
		clock:   clk,
		logger:  logger,
	}
}

// Verify fails closed: incomplete input is invalid, never an error. The only
// error is a missing secret.
func (s *VerificationService) Verify(ctx context.Context, conf domain.PaymentConfirmation) (*VerificationResult, error) {
	if !conf.Complete() {
		s.logger.Warn("payment confirmation is incomplete",
			"order_id", conf.OrderID,
			"payment_id", conf.PaymentID)
		return &VerificationResult{Reason: verificationFailedReason}, nil
	}

	secret, err := s.secrets.Secret()
	if err != nil {
		s.logger.Error("cannot verify payment, signing secret is not configured", "error", err)
		return nil, application.NewVerificationUnavailableError(err)
	}

	valid, err := signature.Verify(secret, conf.OrderID, conf.PaymentID, conf.Signature)
	if err != nil {
		return nil, application.NewVerificationUnavailableError(err)
	}
	if !valid {
		s.logger.Warn("payment signature mismatch",
			"order_id", conf.OrderID,
			"payment_id", conf.PaymentID)
		return &VerificationResult{Reason: verificationFailedReason}, nil
	}

	s.markPaid(ctx, conf)

	return &VerificationResult{Valid: true, PaymentID: conf.PaymentID}, nil
}

func (s *VerificationService) markPaid(ctx context.Context, conf domain.PaymentConfirmation) {
	logger := s.logger.With("order_id", conf.OrderID, "payment_id", conf.PaymentID)

	rec, err := s.orders.FindByID(ctx, conf.OrderID)
	if err != nil {
		logger.Warn("verified payment has no order record", "error", err)
		return
	}

	if err := rec.MarkPaid(conf.PaymentID, s.clock.Now()); err != nil {
		logger.Info("order record already settled", "status", rec.Status)
		return
	}

	if err := s.orders.UpdateStatus(ctx, rec); err != nil {
		logger.Error("failed to mark order paid", "error", err)
		return
	}
	logger.Info("payment verified")
}
