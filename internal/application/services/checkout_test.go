package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/session"
	"github.com/DanielPopoola/creski-storefront/internal/notify"
	"github.com/DanielPopoola/creski-storefront/internal/testhelpers"
	"github.com/DanielPopoola/creski-storefront/internal/worker"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CheckoutCoordinatorTestSuite struct {
	suite.Suite
	redis    *redis.Client
	gateway  *testhelpers.MockGateway
	orders   *testhelpers.MockOrderRepository
	notifier *testhelpers.MockNotifier
	secrets  testhelpers.MockSecrets
	cfg      config.CheckoutConfig
	clock    *clock.Manual
}

func TestCheckoutCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CheckoutCoordinatorTestSuite))
}

func (suite *CheckoutCoordinatorTestSuite) SetupTest() {
	mr := miniredis.RunT(suite.T())
	suite.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	suite.gateway = testhelpers.NewMockGateway()
	suite.orders = testhelpers.NewMockOrderRepository()
	suite.notifier = &testhelpers.MockNotifier{}
	suite.secrets = testhelpers.MockSecrets{Value: testSecret}
	suite.clock = clock.NewManual(t0)
	suite.cfg = config.CheckoutConfig{
		OrderTimeout:  time.Second,
		VerifyTimeout: time.Second,
		NotifyTimeout: time.Second,
	}
}

func (suite *CheckoutCoordinatorTestSuite) TearDownTest() {
	suite.redis.Close()
}

func (suite *CheckoutCoordinatorTestSuite) coordinator(notifier application.Notifier) *services.CheckoutCoordinator {
	t := suite.T()
	logger := testhelpers.DiscardLogger()

	orderSvc, err := services.NewOrderService(suite.gateway, suite.orders, 1, suite.clock, logger)
	require.NoError(t, err)
	verifier := services.NewVerificationService(suite.secrets, suite.orders, suite.clock, logger)

	return services.NewCheckoutCoordinator(
		session.NewRedisStore(suite.redis, time.Hour),
		orderSvc,
		verifier,
		notifier,
		suite.cfg,
		suite.clock,
		logger,
	)
}

// startWithCart opens a session holding a single Rose Oud.
func (suite *CheckoutCoordinatorTestSuite) startWithCart(c *services.CheckoutCoordinator) string {
	t := suite.T()
	ctx := context.Background()

	sess, err := c.StartSession(ctx)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, sess.ID, testhelpers.Item("Rose Oud", 1200))
	require.NoError(t, err)
	return sess.ID
}

func (suite *CheckoutCoordinatorTestSuite) awaitingPayment(c *services.CheckoutCoordinator) (string, *domain.CheckoutSession) {
	t := suite.T()
	id := suite.startWithCart(c)
	sess, err := c.Submit(context.Background(), id, testhelpers.Customer())
	require.NoError(t, err)
	require.Equal(t, domain.StateAwaitingPayment, sess.State)
	return id, sess
}

func confirm(conf domain.PaymentConfirmation) services.PaymentResultCommand {
	return services.PaymentResultCommand{Confirmation: &conf}
}

// ============================================================================
// SCENARIOS
// ============================================================================

func (suite *CheckoutCoordinatorTestSuite) Test_HappyPath_CompletesAndClearsCart() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)

	id, sess := suite.awaitingPayment(c)
	require.NotNil(t, sess.Order)
	assert.Equal(t, int64(120000), sess.Order.Amount)

	done, err := c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, done.State)
	assert.Equal(t, "pay_1", done.PaymentID)
	assert.True(t, done.Cart.IsEmpty())
	assert.Nil(t, done.Customer)

	events := suite.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "1200", events[0].Total.String())
	assert.Equal(t, sess.Order.ID, events[0].OrderID)
	assert.Equal(t, []string{"Rose Oud"}, domain.NamesOf(events[0].Items))

	rec, err := suite.orders.FindByID(ctx, sess.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, rec.Status)

	stored, err := c.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, stored.State)
}

func (suite *CheckoutCoordinatorTestSuite) Test_EmptyCart_RejectedWithoutNetworkCall() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)

	sess, err := c.StartSession(ctx)
	require.NoError(t, err)

	_, err = c.Submit(ctx, sess.ID, testhelpers.Customer())

	svcErr := requireServiceError(t, err, application.ErrCodeInvalidInput)
	assert.Equal(t, http.StatusBadRequest, svcErr.HTTPStatus)
	assert.Empty(t, suite.gateway.Requests())

	stored, err := c.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, stored.State)
}

func (suite *CheckoutCoordinatorTestSuite) Test_IncompleteCustomer_StaysIdle() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id := suite.startWithCart(c)

	customer := testhelpers.Customer()
	customer.Phone = ""
	_, err := c.Submit(ctx, id, customer)

	svcErr := requireServiceError(t, err, application.ErrCodeInvalidInput)
	assert.Equal(t, "phone is required", svcErr.Message)
	assert.Empty(t, suite.gateway.Requests())

	stored, err := c.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, stored.State)
}

func (suite *CheckoutCoordinatorTestSuite) Test_TamperedSignature_ErrorsAndKeepsCart() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id, sess := suite.awaitingPayment(c)

	conf := signed(t, sess.Order.ID, "pay_1")
	conf.PaymentID = "pay_forged"
	errored, err := c.CompletePayment(ctx, id, confirm(conf))

	svcErr := requireServiceError(t, err, application.ErrCodeVerificationFailed)
	assert.True(t, svcErr.Handled())
	require.NotNil(t, errored)
	assert.Equal(t, domain.StateErrored, errored.State)
	assert.Equal(t, "Payment verification failed.", errored.LastError)
	assert.Equal(t, []string{"Rose Oud"}, errored.Cart.Names())
	assert.Empty(t, suite.notifier.Events())

	retried, err := c.Retry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, retried.State)
	assert.Equal(t, []string{"Rose Oud"}, retried.Cart.Names())
}

func (suite *CheckoutCoordinatorTestSuite) Test_NotificationFailure_StillCompletes() {
	t := suite.T()
	ctx := context.Background()

	unreachable := mailSenderFunc(func(context.Context, notify.Email) error {
		return errors.New("dial tcp: connection refused")
	})
	smtp := config.SMTPConfig{
		Host: "smtp.invalid", Port: 587, User: "u", Password: "p",
		Sender: "orders@creski.in", OwnerEmail: "owner@creski.in", Timeout: time.Second,
	}
	dispatcher := notify.NewDispatcher(testhelpers.DiscardLogger(),
		notify.NewOwnerEmail(smtp, unreachable),
		notify.NewCustomerEmail(smtp, unreachable),
	)
	notifications := services.NewNotificationService(dispatcher, suite.orders, time.Second, testhelpers.DiscardLogger())
	c := suite.coordinator(notifications)
	id, sess := suite.awaitingPayment(c)

	done, err := c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))

	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, done.State)
	require.NoError(t, notifications.Wait(ctx))
}

func (suite *CheckoutCoordinatorTestSuite) Test_GatewayNotConfigured_RetryableError() {
	t := suite.T()
	ctx := context.Background()
	suite.gateway.ClientErr = &config.MissingConfigError{Group: "gateway", Missing: []string{"gateway.key_id"}}
	c := suite.coordinator(suite.notifier)
	id := suite.startWithCart(c)

	errored, err := c.Submit(ctx, id, testhelpers.Customer())

	svcErr := requireServiceError(t, err, application.ErrCodeGatewayNotConfigured)
	assert.True(t, svcErr.Handled())
	require.NotNil(t, errored)
	assert.Equal(t, domain.StateErrored, errored.State)
	assert.Equal(t, "Payment gateway is not configured.", errored.LastError)
	assert.Equal(t, application.ErrCodeGatewayNotConfigured, errored.ErrorCode)

	retried, err := c.Retry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, retried.State)
}

// ============================================================================
// EDGE CASES
// ============================================================================

func (suite *CheckoutCoordinatorTestSuite) Test_OrderTimeout_ErrorsSession() {
	t := suite.T()
	suite.cfg.OrderTimeout = 30 * time.Millisecond
	suite.gateway.CreateOrderFn = func(ctx context.Context, _ application.GatewayOrderRequest) (*application.GatewayOrder, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := suite.coordinator(suite.notifier)
	id := suite.startWithCart(c)

	errored, err := c.Submit(context.Background(), id, testhelpers.Customer())

	requireServiceError(t, err, application.ErrCodeTimeout)
	require.NotNil(t, errored)
	assert.Equal(t, domain.StateErrored, errored.State)
	assert.Nil(t, errored.Deadline)
}

func (suite *CheckoutCoordinatorTestSuite) Test_CanceledRequest_StillSettlesSession() {
	t := suite.T()
	ctx, cancel := context.WithCancel(context.Background())
	suite.gateway.CreateOrderFn = func(gwCtx context.Context, req application.GatewayOrderRequest) (*application.GatewayOrder, error) {
		cancel()
		if gwCtx.Err() != nil {
			return nil, gwCtx.Err()
		}
		return &application.GatewayOrder{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
	}
	c := suite.coordinator(suite.notifier)
	id := suite.startWithCart(c)

	sess, err := c.Submit(ctx, id, testhelpers.Customer())

	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingPayment, sess.State)
}

func (suite *CheckoutCoordinatorTestSuite) Test_PaymentFailureSignal() {
	t := suite.T()
	c := suite.coordinator(suite.notifier)
	id, _ := suite.awaitingPayment(c)

	errored, err := c.CompletePayment(context.Background(), id,
		services.PaymentResultCommand{Failed: true, Reason: "card declined"})

	svcErr := requireServiceError(t, err, application.ErrCodePaymentFailed)
	assert.Equal(t, "Payment was not completed: card declined", svcErr.Message)
	assert.Equal(t, domain.StateErrored, errored.State)
	assert.False(t, errored.Cart.IsEmpty())
}

func (suite *CheckoutCoordinatorTestSuite) Test_ConfirmationForAnotherOrder() {
	t := suite.T()
	c := suite.coordinator(suite.notifier)
	id, _ := suite.awaitingPayment(c)

	errored, err := c.CompletePayment(context.Background(), id, confirm(signed(t, "order_other", "pay_1")))

	requireServiceError(t, err, application.ErrCodeVerificationFailed)
	assert.Equal(t, domain.StateErrored, errored.State)
	assert.Empty(t, suite.notifier.Events())
}

func (suite *CheckoutCoordinatorTestSuite) Test_VerificationUnavailable() {
	t := suite.T()
	suite.secrets = testhelpers.MockSecrets{Err: &config.MissingConfigError{Group: "gateway", Missing: []string{"gateway.key_secret"}}}
	c := suite.coordinator(suite.notifier)
	id, sess := suite.awaitingPayment(c)

	errored, err := c.CompletePayment(context.Background(), id,
		confirm(domain.PaymentConfirmation{OrderID: sess.Order.ID, PaymentID: "pay_1", Signature: "ab"}))

	requireServiceError(t, err, application.ErrCodeVerificationUnavailable)
	assert.Equal(t, "Cannot verify payment.", errored.LastError)
}

func (suite *CheckoutCoordinatorTestSuite) Test_CartLockedWhileAwaitingPayment() {
	t := suite.T()
	c := suite.coordinator(suite.notifier)
	id, _ := suite.awaitingPayment(c)

	_, err := c.AddItem(context.Background(), id, testhelpers.Item("Amber Night", 850))

	svcErr := requireServiceError(t, err, application.ErrCodeInvalidState)
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus)
}

func (suite *CheckoutCoordinatorTestSuite) Test_CartEditing() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id := suite.startWithCart(c)

	sess, err := c.AddItem(ctx, id, testhelpers.Item("Rose Oud", 1200))
	require.NoError(t, err)
	assert.Len(t, sess.Cart.Items, 1)

	sess, err = c.AddItem(ctx, id, testhelpers.Item("Amber Night", 850))
	require.NoError(t, err)
	assert.Equal(t, "2050", sess.Total().String())

	sess, err = c.RemoveItem(ctx, id, "Rose Oud")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amber Night"}, sess.Cart.Names())
}

func (suite *CheckoutCoordinatorTestSuite) Test_UnknownSession() {
	t := suite.T()
	c := suite.coordinator(suite.notifier)

	_, err := c.GetSession(context.Background(), "missing")

	svcErr := requireServiceError(t, err, application.ErrCodeSessionNotFound)
	assert.Equal(t, http.StatusNotFound, svcErr.HTTPStatus)
}

func (suite *CheckoutCoordinatorTestSuite) Test_CompletedIsTerminal() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id, sess := suite.awaitingPayment(c)
	_, err := c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))
	require.NoError(t, err)

	_, err = c.Retry(ctx, id)
	requireServiceError(t, err, application.ErrCodeInvalidState)

	_, err = c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))
	requireServiceError(t, err, application.ErrCodeInvalidState)
	assert.Len(t, suite.notifier.Events(), 1)
}

func (suite *CheckoutCoordinatorTestSuite) Test_SweptDuringVerification_StillCompletes() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id, sess := suite.awaitingPayment(c)

	sweeper := worker.NewSessionSweeper(session.NewRedisStore(suite.redis, time.Hour),
		suite.clock, time.Second, 10, testhelpers.DiscardLogger())
	suite.orders.FindByIDFn = func(ctx context.Context, orderID string) (*domain.OrderRecord, error) {
		suite.clock.Advance(2 * suite.cfg.VerifyTimeout)
		swept, err := sweeper.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, swept)
		return nil, domain.NewOrderNotFoundError(orderID)
	}

	done, err := c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompleted, done.State)
	assert.Equal(t, "pay_1", done.PaymentID)
	assert.Empty(t, done.ErrorCode)
	assert.Empty(t, done.LastError)
	assert.True(t, done.Cart.IsEmpty())
	assert.Len(t, suite.notifier.Events(), 1)
}

func (suite *CheckoutCoordinatorTestSuite) Test_RetriedAfterSweep_NotCompletedLate() {
	t := suite.T()
	ctx := context.Background()
	c := suite.coordinator(suite.notifier)
	id, sess := suite.awaitingPayment(c)

	sweeper := worker.NewSessionSweeper(session.NewRedisStore(suite.redis, time.Hour),
		suite.clock, time.Second, 10, testhelpers.DiscardLogger())
	suite.orders.FindByIDFn = func(ctx context.Context, orderID string) (*domain.OrderRecord, error) {
		suite.clock.Advance(2 * suite.cfg.VerifyTimeout)
		_, err := sweeper.Sweep(ctx)
		require.NoError(t, err)
		_, err = c.Retry(ctx, id)
		require.NoError(t, err)
		return nil, domain.NewOrderNotFoundError(orderID)
	}

	_, err := c.CompletePayment(ctx, id, confirm(signed(t, sess.Order.ID, "pay_1")))
	requireServiceError(t, err, application.ErrCodeInvalidState)

	got, err := c.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, got.State)
}

type mailSenderFunc func(ctx context.Context, email notify.Email) error

func (f mailSenderFunc) Send(ctx context.Context, email notify.Email) error {
	return f(ctx, email)
}
