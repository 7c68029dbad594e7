package testhelpers

import (
	"context"
	"sync"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
)

// MockOrderRepository is an in-memory application.OrderRepository. Set an
// XxxFn field to override a method.
type MockOrderRepository struct {
	mu      sync.RWMutex
	records map[string]domain.OrderRecord

	SaveFn                func(ctx context.Context, rec *domain.OrderRecord) error
	FindByIDFn            func(ctx context.Context, id string) (*domain.OrderRecord, error)
	FindByChatMessageIDFn func(ctx context.Context, messageID int64) (*domain.OrderRecord, error)
	UpdateStatusFn        func(ctx context.Context, rec *domain.OrderRecord) error
	AttachChatMessageFn   func(ctx context.Context, orderID, paymentID string, messageID int64) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{records: make(map[string]domain.OrderRecord)}
}

func (m *MockOrderRepository) Save(ctx context.Context, rec *domain.OrderRecord) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = *rec
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.OrderRecord, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.NewOrderNotFoundError(id)
	}
	return &rec, nil
}

func (m *MockOrderRepository) FindByChatMessageID(ctx context.Context, messageID int64) (*domain.OrderRecord, error) {
	if m.FindByChatMessageIDFn != nil {
		return m.FindByChatMessageIDFn(ctx, messageID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ChatMessageID != nil && *rec.ChatMessageID == messageID {
			return &rec, nil
		}
	}
	return nil, domain.NewOrderNotFoundError("for chat message")
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, rec *domain.OrderRecord) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return domain.NewOrderNotFoundError(rec.ID)
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *MockOrderRepository) AttachChatMessage(ctx context.Context, orderID, paymentID string, messageID int64) error {
	if m.AttachChatMessageFn != nil {
		return m.AttachChatMessageFn(ctx, orderID, paymentID, messageID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[orderID]
	if !ok {
		return domain.NewOrderNotFoundError(orderID)
	}
	if err := rec.LinkChatMessage(paymentID, messageID); err != nil {
		return err
	}
	m.records[orderID] = rec
	return nil
}

// MockGateway is both the provider and its client.
type MockGateway struct {
	mu       sync.Mutex
	requests []application.GatewayOrderRequest

	CurrencyCode  string
	ClientErr     error
	CreateOrderFn func(ctx context.Context, req application.GatewayOrderRequest) (*application.GatewayOrder, error)
}

func NewMockGateway() *MockGateway {
	return &MockGateway{CurrencyCode: "INR"}
}

func (m *MockGateway) Client() (application.GatewayClient, error) {
	if m.ClientErr != nil {
		return nil, m.ClientErr
	}
	return m, nil
}

func (m *MockGateway) Currency() string {
	return m.CurrencyCode
}

func (m *MockGateway) CreateOrder(ctx context.Context, req application.GatewayOrderRequest) (*application.GatewayOrder, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, req)
	}
	return &application.GatewayOrder{
		ID:       "order_" + req.Receipt[len(req.Receipt)-6:],
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}, nil
}

func (m *MockGateway) Requests() []application.GatewayOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]application.GatewayOrderRequest(nil), m.requests...)
}

type MockSecrets struct {
	Value string
	Err   error
}

func (m MockSecrets) Secret() (string, error) {
	return m.Value, m.Err
}

// MockNotifier records events instead of sending them.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (m *MockNotifier) Notify(event domain.NotificationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockNotifier) Events() []domain.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.NotificationEvent(nil), m.events...)
}

type MockShippingMailer struct {
	mu   sync.Mutex
	sent []string

	SendShippedFn func(ctx context.Context, rec *domain.OrderRecord) error
}

func (m *MockShippingMailer) SendShipped(ctx context.Context, rec *domain.OrderRecord) error {
	m.mu.Lock()
	m.sent = append(m.sent, rec.ID)
	m.mu.Unlock()
	if m.SendShippedFn != nil {
		return m.SendShippedFn(ctx, rec)
	}
	return nil
}

func (m *MockShippingMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
