package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/creski-storefront/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderRepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDatabase
	repo   *postgres.OrderRepository
	ctx    context.Context
}

func (s *OrderRepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDatabase(s.T())
	s.repo = postgres.NewOrderRepository(s.testDB.DB.Pool)
	s.ctx = context.Background()
}

func (s *OrderRepositoryTestSuite) TearDownSuite() {
	s.testDB.Cleanup(s.T())
}

func (s *OrderRepositoryTestSuite) SetupTest() {
	s.testDB.CleanTables(s.T())
}

func TestOrderRepositoryTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	suite.Run(t, new(OrderRepositoryTestSuite))
}

func (s *OrderRepositoryTestSuite) TestSaveAndFind() {
	t := s.T()
	rec := testhelpers.OrderRecord("order_save")

	require.NoError(t, s.repo.Save(s.ctx, rec))

	got, err := s.repo.FindByID(s.ctx, "order_save")
	require.NoError(t, err)

	assert.Equal(t, rec.Receipt, got.Receipt)
	assert.Equal(t, int64(120000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.True(t, rec.Total.Equal(got.Total))
	assert.Equal(t, rec.Customer, got.Customer)
	assert.Equal(t, []string{"Rose Oud"}, domain.NamesOf(got.Items))
	assert.Equal(t, `["Rose Oud"]`, got.Notes["items"])
	assert.Equal(t, domain.OrderStatusCreated, got.Status)
	assert.Nil(t, got.PaymentID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func (s *OrderRepositoryTestSuite) TestSave_Duplicate() {
	t := s.T()
	rec := testhelpers.OrderRecord("order_dup")
	require.NoError(t, s.repo.Save(s.ctx, rec))

	err := s.repo.Save(s.ctx, rec)

	assert.ErrorIs(t, err, postgres.ErrDuplicateOrder)
}

func (s *OrderRepositoryTestSuite) TestFindByID_NotFound() {
	_, err := s.repo.FindByID(s.ctx, "order_missing")

	assert.ErrorIs(s.T(), err, domain.ErrOrderNotFound)
}

func (s *OrderRepositoryTestSuite) TestLifecycle() {
	t := s.T()
	rec := testhelpers.OrderRecord("order_life")
	require.NoError(t, s.repo.Save(s.ctx, rec))

	paidAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, rec.MarkPaid("pay_123", paidAt))
	require.NoError(t, s.repo.UpdateStatus(s.ctx, rec))
	require.NoError(t, s.repo.AttachChatMessage(s.ctx, rec.ID, "pay_123", 4242))

	got, err := s.repo.FindByChatMessageID(s.ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_123", *got.PaymentID)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))

	require.NoError(t, got.MarkShipped(paidAt.Add(time.Hour)))
	require.NoError(t, s.repo.UpdateStatus(s.ctx, got))

	again, err := s.repo.FindByID(s.ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, again.Status)
	require.NotNil(t, again.ChatMessageID)
	assert.Equal(t, int64(4242), *again.ChatMessageID)
}

func (s *OrderRepositoryTestSuite) TestAttachChatMessage_Guarded() {
	t := s.T()
	unpaid := testhelpers.OrderRecord("order_unpaid")
	require.NoError(t, s.repo.Save(s.ctx, unpaid))
	assert.ErrorIs(t, s.repo.AttachChatMessage(s.ctx, unpaid.ID, "pay_1", 7001), domain.ErrChatLinkRejected)

	paid := testhelpers.OrderRecord("order_paid")
	require.NoError(t, s.repo.Save(s.ctx, paid))
	require.NoError(t, paid.MarkPaid("pay_real", time.Now().UTC()))
	require.NoError(t, s.repo.UpdateStatus(s.ctx, paid))

	assert.ErrorIs(t, s.repo.AttachChatMessage(s.ctx, paid.ID, "pay_forged", 7002), domain.ErrChatLinkRejected)
	require.NoError(t, s.repo.AttachChatMessage(s.ctx, paid.ID, "pay_real", 7003))
	assert.ErrorIs(t, s.repo.AttachChatMessage(s.ctx, paid.ID, "pay_real", 7004), domain.ErrChatLinkRejected)

	got, err := s.repo.FindByID(s.ctx, paid.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ChatMessageID)
	assert.Equal(t, int64(7003), *got.ChatMessageID)

	again, err := s.repo.FindByID(s.ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Nil(t, again.ChatMessageID)
}

func (s *OrderRepositoryTestSuite) TestUpdates_UnknownOrder() {
	t := s.T()
	rec := testhelpers.OrderRecord("order_ghost")

	assert.ErrorIs(t, s.repo.UpdateStatus(s.ctx, rec), domain.ErrOrderNotFound)
	assert.ErrorIs(t, s.repo.AttachChatMessage(s.ctx, "order_ghost", "pay_1", 1), domain.ErrOrderNotFound)

	_, err := s.repo.FindByChatMessageID(s.ctx, 1)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
