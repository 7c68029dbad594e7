package razorpay_test

import (
	"context"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, req application.GatewayOrderRequest) (*application.GatewayOrder, error) {
	args := m.Called(ctx, req)
	order, _ := args.Get(0).(*application.GatewayOrder)
	return order, args.Error(1)
}
