package domain_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0       = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	customer = domain.CustomerDetails{
		Name: "Asha", Email: "asha@example.com", Phone: "9999999999",
		Address: "12 MG Road", City: "Pune", State: "MH", Zip: "411001",
	}
)

func sessionWithItem(t *testing.T) *domain.CheckoutSession {
	t.Helper()
	s := domain.NewCheckoutSession("sess-1", t0)
	_, err := s.AddItem(item(t, "Rose Oud", 1200), t0)
	require.NoError(t, err)
	return s
}

func TestCheckoutSession_HappyPath(t *testing.T) {
	s := sessionWithItem(t)

	require.NoError(t, s.BeginOrder(customer, t0, t0.Add(20*time.Second)))
	assert.Equal(t, domain.StateOrderCreating, s.State)
	assert.True(t, s.IsInFlight())

	require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1", Amount: 120000}, t0))
	assert.Equal(t, domain.StateAwaitingPayment, s.State)
	assert.Nil(t, s.Deadline)

	require.NoError(t, s.BeginVerification(t0, t0.Add(20*time.Second)))
	require.NoError(t, s.Complete("pay_1", t0))

	assert.Equal(t, domain.StateCompleted, s.State)
	assert.Equal(t, "pay_1", s.PaymentID)
	assert.True(t, s.Cart.IsEmpty())
	assert.Nil(t, s.Customer)
	assert.True(t, s.IsTerminal())
}

func TestCheckoutSession_SubmissionGuard(t *testing.T) {
	t.Run("empty cart stays idle", func(t *testing.T) {
		s := domain.NewCheckoutSession("sess-1", t0)

		err := s.BeginOrder(customer, t0, t0.Add(time.Minute))

		assert.ErrorIs(t, err, domain.ErrEmptyCart)
		assert.Equal(t, domain.StateIdle, s.State)
		assert.Nil(t, s.Customer)
	})

	t.Run("incomplete customer stays idle", func(t *testing.T) {
		s := sessionWithItem(t)
		c := customer
		c.Email = " "

		err := s.BeginOrder(c, t0, t0.Add(time.Minute))

		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
		assert.Equal(t, domain.StateIdle, s.State)
	})
}

func TestCheckoutSession_Failure(t *testing.T) {
	t.Run("verification failure keeps the cart", func(t *testing.T) {
		s := sessionWithItem(t)
		require.NoError(t, s.BeginOrder(customer, t0, t0.Add(time.Minute)))
		require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1"}, t0))
		require.NoError(t, s.BeginVerification(t0, t0.Add(time.Minute)))

		require.NoError(t, s.Fail("VERIFICATION_FAILED", "Payment verification failed.", t0))

		assert.Equal(t, domain.StateErrored, s.State)
		assert.Equal(t, []string{"Rose Oud"}, s.Cart.Names())
		assert.Equal(t, "Payment verification failed.", s.LastError)
	})

	t.Run("retry returns to idle and clears the error", func(t *testing.T) {
		s := sessionWithItem(t)
		require.NoError(t, s.BeginOrder(customer, t0, t0.Add(time.Minute)))
		require.NoError(t, s.Fail("ORDER_CREATION_FAILED", "Could not create order. Please try again.", t0))

		require.NoError(t, s.Reset(t0))

		assert.Equal(t, domain.StateIdle, s.State)
		assert.Empty(t, s.LastError)
		assert.Nil(t, s.Order)
		assert.False(t, s.Cart.IsEmpty())
	})

	t.Run("payment UI failure signal", func(t *testing.T) {
		s := sessionWithItem(t)
		require.NoError(t, s.BeginOrder(customer, t0, t0.Add(time.Minute)))
		require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1"}, t0))

		assert.NoError(t, s.Fail("PAYMENT_FAILED", "Payment was not completed.", t0))
	})
}

func TestCheckoutSession_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *domain.CheckoutSession) error
	}{
		{"verify from idle", func(s *domain.CheckoutSession) error {
			return s.BeginVerification(t0, t0)
		}},
		{"complete from idle", func(s *domain.CheckoutSession) error {
			return s.Complete("pay_1", t0)
		}},
		{"fail from idle", func(s *domain.CheckoutSession) error {
			return s.Fail("X", "x", t0)
		}},
		{"reset from idle", func(s *domain.CheckoutSession) error {
			return s.Reset(t0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionWithItem(t)

			err := tt.run(s)

			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, domain.StateIdle, s.State)
		})
	}

	t.Run("completed is terminal", func(t *testing.T) {
		s := sessionWithItem(t)
		require.NoError(t, s.BeginOrder(customer, t0, t0))
		require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1"}, t0))
		require.NoError(t, s.BeginVerification(t0, t0))
		require.NoError(t, s.Complete("pay_1", t0))

		assert.ErrorIs(t, s.Fail("X", "x", t0), domain.ErrInvalidTransition)
		assert.ErrorIs(t, s.Reset(t0), domain.ErrInvalidTransition)
	})
}

func TestCheckoutSession_CartLock(t *testing.T) {
	s := sessionWithItem(t)
	require.NoError(t, s.BeginOrder(customer, t0, t0.Add(time.Minute)))

	_, err := s.AddItem(item(t, "Amber Night", 850), t0)
	assert.ErrorIs(t, err, domain.ErrCartLocked)

	_, err = s.RemoveItem("Rose Oud", t0)
	assert.ErrorIs(t, err, domain.ErrCartLocked)

	require.NoError(t, s.Fail("X", "x", t0))
	added, err := s.AddItem(item(t, "Amber Night", 850), t0)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestCheckoutSession_Expired(t *testing.T) {
	s := sessionWithItem(t)
	require.NoError(t, s.BeginOrder(customer, t0, t0.Add(20*time.Second)))

	assert.False(t, s.Expired(t0.Add(10*time.Second)))
	assert.True(t, s.Expired(t0.Add(21*time.Second)))

	require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1"}, t0))
	assert.False(t, s.Expired(t0.Add(time.Hour)))
}

func TestOrderRecord(t *testing.T) {
	items := []domain.CartItem{item(t, "Rose Oud", 1200), item(t, "Amber Night", 850)}
	rec := domain.NewOrderRecord(domain.Order{ID: "order_1", Amount: 205000, CreatedAt: t0}, customer, items)

	assert.Equal(t, domain.OrderStatusCreated, rec.Status)
	assert.Equal(t, "2050", rec.Total.String())

	assert.ErrorIs(t, rec.MarkShipped(t0), domain.ErrInvalidTransition)

	require.NoError(t, rec.MarkPaid("pay_1", t0))
	require.NoError(t, rec.MarkShipped(t0.Add(time.Hour)))
	assert.Equal(t, domain.OrderStatusShipped, rec.Status)
	assert.ErrorIs(t, rec.MarkPaid("pay_2", t0), domain.ErrInvalidTransition)
}

func TestNotificationEvent(t *testing.T) {
	items := []domain.CartItem{item(t, "Rose Oud", 1200)}

	ev := domain.NewNotificationEvent("order_1", "pay_ABCDEF123456", customer, items, "INR", t0)
	items[0].Name = "changed"

	assert.Equal(t, "Rose Oud", ev.Items[0].Name)
	assert.Equal(t, "1200", ev.Total.String())
	assert.Equal(t, "123456", ev.ShortPaymentID())
}

func TestOrderRecord_LinkChatMessage(t *testing.T) {
	rec := domain.NewOrderRecord(domain.Order{ID: "order_1", CreatedAt: t0}, domain.CustomerDetails{}, nil)
	assert.ErrorIs(t, rec.LinkChatMessage("pay_1", 10), domain.ErrChatLinkRejected)

	require.NoError(t, rec.MarkPaid("pay_1", t0))
	assert.ErrorIs(t, rec.LinkChatMessage("pay_2", 10), domain.ErrChatLinkRejected)
	require.NoError(t, rec.LinkChatMessage("pay_1", 10))
	assert.ErrorIs(t, rec.LinkChatMessage("pay_1", 11), domain.ErrChatLinkRejected)

	require.NotNil(t, rec.ChatMessageID)
	assert.Equal(t, int64(10), *rec.ChatMessageID)
}

func TestCheckoutSession_CompleteLate(t *testing.T) {
	timedOut := func(t *testing.T) *domain.CheckoutSession {
		s := sessionWithItem(t)
		require.NoError(t, s.BeginOrder(customer, t0, t0.Add(time.Second)))
		require.NoError(t, s.OrderCreated(domain.Order{ID: "order_1"}, t0))
		require.NoError(t, s.BeginVerification(t0, t0.Add(time.Second)))
		require.NoError(t, s.Fail("TIMEOUT", "Timed out while verifying your payment.", t0.Add(2*time.Second)))
		return s
	}

	t.Run("matching order completes", func(t *testing.T) {
		s := timedOut(t)

		require.NoError(t, s.CompleteLate("order_1", "pay_1", t0.Add(3*time.Second)))

		assert.Equal(t, domain.StateCompleted, s.State)
		assert.Equal(t, "pay_1", s.PaymentID)
		assert.Empty(t, s.ErrorCode)
		assert.True(t, s.Cart.IsEmpty())
		assert.Nil(t, s.Customer)
	})

	t.Run("other order rejected", func(t *testing.T) {
		s := timedOut(t)

		assert.ErrorIs(t, s.CompleteLate("order_2", "pay_1", t0), domain.ErrInvalidTransition)
		assert.Equal(t, domain.StateErrored, s.State)
		assert.False(t, s.Cart.IsEmpty())
	})

	t.Run("not errored rejected", func(t *testing.T) {
		s := sessionWithItem(t)

		assert.ErrorIs(t, s.CompleteLate("order_1", "pay_1", t0), domain.ErrInvalidTransition)
		assert.Equal(t, domain.StateIdle, s.State)
	})
}
