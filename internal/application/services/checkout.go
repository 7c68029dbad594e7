package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/google/uuid"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, conf domain.PaymentConfirmation) (*VerificationResult, error)
}

// CheckoutCoordinator drives a checkout session through order creation,
// payment and verification. Every state change is persisted before the
// blocking call it guards.
type CheckoutCoordinator struct {
	sessions application.SessionStore
	orders   OrderCreator
	verifier PaymentVerifier
	notifier application.Notifier
	cfg      config.CheckoutConfig
	clock    clock.Clock
	logger   *slog.Logger
}

func NewCheckoutCoordinator(
	sessions application.SessionStore,
	orders OrderCreator,
	verifier PaymentVerifier,
	notifier application.Notifier,
	cfg config.CheckoutConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *CheckoutCoordinator {
	return &CheckoutCoordinator{
		sessions: sessions,
		orders:   orders,
		verifier: verifier,
		notifier: notifier,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
	}
}

func (c *CheckoutCoordinator) StartSession(ctx context.Context) (*domain.CheckoutSession, error) {
	sess := domain.NewCheckoutSession(uuid.NewString(), c.clock.Now())
	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, application.ToServiceError(err)
	}
	c.logger.Info("checkout session started", "session_id", sess.ID)
	return sess, nil
}

func (c *CheckoutCoordinator) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	sess, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, application.ToServiceError(err)
	}
	return sess, nil
}

func (c *CheckoutCoordinator) AddItem(ctx context.Context, id string, item domain.CartItem) (*domain.CheckoutSession, error) {
	return c.update(ctx, id, func(s *domain.CheckoutSession) error {
		_, err := s.AddItem(item, c.clock.Now())
		return err
	})
}

func (c *CheckoutCoordinator) RemoveItem(ctx context.Context, id, name string) (*domain.CheckoutSession, error) {
	return c.update(ctx, id, func(s *domain.CheckoutSession) error {
		_, err := s.RemoveItem(name, c.clock.Now())
		return err
	})
}

// Submit creates the provider order for the session's cart. A rejected
// submission leaves the session IDLE and makes no gateway call. A failed
// gateway call returns the ERRORED session along with the handled error.
func (c *CheckoutCoordinator) Submit(ctx context.Context, id string, customer domain.CustomerDetails) (*domain.CheckoutSession, error) {
	now := c.clock.Now()
	sess, err := c.update(ctx, id, func(s *domain.CheckoutSession) error {
		return s.BeginOrder(customer, now, now.Add(c.cfg.OrderTimeout))
	})
	if err != nil {
		return nil, err
	}

	// From here on the session must leave ORDER_CREATING even if the client
	// goes away.
	settleCtx := context.WithoutCancel(ctx)
	orderCtx, cancel := context.WithTimeout(settleCtx, c.cfg.OrderTimeout)
	defer cancel()

	order, err := c.orders.CreateOrder(orderCtx, CreateOrderCommand{
		Amount:   sess.Total(),
		Customer: customer,
		Items:    sess.Cart.Snapshot(),
	})
	if err != nil {
		return c.fail(ctx, id, handledError(err, "creating your order"))
	}

	return c.update(settleCtx, id, func(s *domain.CheckoutSession) error {
		return s.OrderCreated(*order, c.clock.Now())
	})
}

// CompletePayment applies the hosted payment UI's outcome. Verified payments
// complete the session and trigger notifications; everything else leaves the
// session ERRORED with its cart intact.
func (c *CheckoutCoordinator) CompletePayment(ctx context.Context, id string, cmd PaymentResultCommand) (*domain.CheckoutSession, error) {
	if cmd.Failed || cmd.Confirmation == nil {
		return c.fail(ctx, id, application.NewPaymentFailedError(cmd.Reason))
	}
	conf := *cmd.Confirmation

	now := c.clock.Now()
	sess, err := c.update(ctx, id, func(s *domain.CheckoutSession) error {
		return s.BeginVerification(now, now.Add(c.cfg.VerifyTimeout))
	})
	if err != nil {
		return nil, err
	}

	if sess.Order == nil || sess.Order.ID != conf.OrderID {
		c.logger.Warn("payment confirmation is for a different order",
			"session_id", id,
			"order_id", conf.OrderID)
		return c.fail(ctx, id, application.NewVerificationFailedError())
	}

	settleCtx := context.WithoutCancel(ctx)
	verifyCtx, cancel := context.WithTimeout(settleCtx, c.cfg.VerifyTimeout)
	defer cancel()

	result, err := c.verifier.Verify(verifyCtx, conf)
	if err != nil {
		return c.fail(ctx, id, handledError(err, "verifying your payment"))
	}
	if !result.Valid {
		return c.fail(ctx, id, application.NewVerificationFailedError())
	}

	// The payment is settled; notify regardless of the session write below.
	if sess.Customer != nil {
		c.notifier.Notify(domain.NewNotificationEvent(
			sess.Order.ID,
			result.PaymentID,
			*sess.Customer,
			sess.Cart.Snapshot(),
			sess.Order.Currency,
			c.clock.Now(),
		))
	}

	completed, err := c.update(settleCtx, id, func(s *domain.CheckoutSession) error {
		if s.State == domain.StateErrored && s.ErrorCode == application.ErrCodeTimeout {
			// The sweeper gave up on this verification before it returned.
			return s.CompleteLate(conf.OrderID, result.PaymentID, c.clock.Now())
		}
		return s.Complete(result.PaymentID, c.clock.Now())
	})
	if err != nil {
		c.logger.Error("payment verified but session not completed",
			"session_id", id,
			"payment_id", result.PaymentID,
			"error", err)
		return nil, err
	}

	c.logger.Info("checkout completed", "session_id", id, "payment_id", result.PaymentID)
	return completed, nil
}

func (c *CheckoutCoordinator) Retry(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return c.update(ctx, id, func(s *domain.CheckoutSession) error {
		return s.Reset(c.clock.Now())
	})
}

// fail records svcErr on the session and returns it. If the session cannot
// be written the sweeper fails it once its deadline passes.
func (c *CheckoutCoordinator) fail(ctx context.Context, id string, svcErr *application.ServiceError) (*domain.CheckoutSession, error) {
	c.logger.Warn("checkout step failed",
		"session_id", id,
		"code", svcErr.Code,
		"error", svcErr)

	sess, err := c.sessions.Update(context.WithoutCancel(ctx), id, func(s *domain.CheckoutSession) error {
		return s.Fail(svcErr.Code, svcErr.Message, c.clock.Now())
	})
	if err != nil {
		c.logger.Error("failed to record checkout failure", "session_id", id, "error", err)
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, application.ToServiceError(err)
		}
		return nil, svcErr
	}
	return sess, svcErr
}

func (c *CheckoutCoordinator) update(ctx context.Context, id string, fn func(s *domain.CheckoutSession) error) (*domain.CheckoutSession, error) {
	sess, err := c.sessions.Update(ctx, id, fn)
	if err != nil {
		return nil, application.ToServiceError(err)
	}
	return sess, nil
}

func handledError(err error, operation string) *application.ServiceError {
	if svcErr, ok := application.IsServiceError(err); ok {
		return svcErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return application.NewTimeoutError(operation, err)
	}
	return application.NewInternalError(err)
}
