package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/application"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/bwmarrin/snowflake"
)

// OrderService creates provider orders from a cart and customer details.
type OrderService struct {
	gateways application.GatewayProvider
	orders   application.OrderRepository
	node     *snowflake.Node
	clock    clock.Clock
	logger   *slog.Logger
}

func NewOrderService(
	gateways application.GatewayProvider,
	orders application.OrderRepository,
	nodeID int64,
	clk clock.Clock,
	logger *slog.Logger,
) (*OrderService, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("receipt id generator: %w", err)
	}
	return &OrderService{
		gateways: gateways,
		orders:   orders,
		node:     node,
		clock:    clk,
		logger:   logger,
	}, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := validateOrderCommand(cmd); err != nil {
		return nil, err
	}

	client, err := s.gateways.Client()
	if err != nil {
		if cfgErr, ok := config.IsMissingConfig(err); ok {
			s.logger.Error("payment gateway is not configured", "missing", cfgErr.Missing, "invalid", cfgErr.Invalid)
			return nil, application.NewGatewayNotConfiguredError(err)
		}
		return nil, application.NewInternalError(err)
	}

	notes, err := orderNotes(cmd.Customer, cmd.Items)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	req := application.GatewayOrderRequest{
		Amount:   domain.ToMinorUnits(cmd.Amount),
		Currency: s.gateways.Currency(),
		Receipt:  "receipt_order_" + s.node.Generate().String(),
		Notes:    notes,
	}

	gwOrder, err := client.CreateOrder(ctx, req)
	if err == nil && (gwOrder == nil || gwOrder.ID == "") {
		err = errors.New("gateway returned an order without an id")
	}
	if err != nil {
		s.logger.Error("order creation failed",
			"receipt", req.Receipt,
			"amount_minor", req.Amount,
			"error", err,
			"category", application.CategorizeError(err))

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, application.NewTimeoutError("creating your order", err)
		case isMissingConfig(err):
			return nil, application.NewGatewayNotConfiguredError(err)
		default:
			return nil, application.NewOrderCreationFailedError(err)
		}
	}

	order := toDomainOrder(gwOrder, req, s.clock.Now())
	s.logger.Info("order created", "order_id", order.ID, "receipt", order.Receipt, "amount_minor", order.Amount)

	rec := domain.NewOrderRecord(order, cmd.Customer, cmd.Items)
	if err := s.orders.Save(ctx, rec); err != nil {
		s.logger.Error("failed to persist order record", "order_id", order.ID, "error", err)
	}

	return &order, nil
}

func validateOrderCommand(cmd CreateOrderCommand) error {
	if !cmd.Amount.IsPositive() {
		return application.NewInvalidInputError(domain.NewInvalidAmountError(cmd.Amount.String()))
	}
	if len(cmd.Items) == 0 {
		return application.NewInvalidInputError(domain.ErrEmptyCart)
	}
	if err := cmd.Customer.Validate(); err != nil {
		return application.NewInvalidInputError(err)
	}

	total := domain.TotalOf(cmd.Items)
	if !total.Equal(cmd.Amount) {
		return application.NewAmountMismatchError(
			domain.NewAmountMismatchError(total.StringFixed(2), cmd.Amount.StringFixed(2)))
	}
	return nil
}

func orderNotes(customer domain.CustomerDetails, items []domain.CartItem) (map[string]string, error) {
	names, err := json.Marshal(domain.NamesOf(items))
	if err != nil {
		return nil, fmt.Errorf("encode item names: %w", err)
	}
	return map[string]string{
		"customer_name":    customer.Name,
		"customer_email":   customer.Email,
		"customer_phone":   customer.Phone,
		"customer_address": customer.FullAddress(),
		"items":            string(names),
	}, nil
}

func toDomainOrder(gw *application.GatewayOrder, req application.GatewayOrderRequest, now time.Time) domain.Order {
	order := domain.Order{
		ID:        gw.ID,
		Receipt:   gw.Receipt,
		Amount:    gw.Amount,
		Currency:  gw.Currency,
		Notes:     gw.Notes,
		CreatedAt: now,
	}
	if order.Receipt == "" {
		order.Receipt = req.Receipt
	}
	if order.Amount == 0 {
		order.Amount = req.Amount
	}
	if order.Currency == "" {
		order.Currency = req.Currency
	}
	if order.Notes == nil {
		order.Notes = req.Notes
	}
	if gw.CreatedAt > 0 {
		order.CreatedAt = time.Unix(gw.CreatedAt, 0).UTC()
	}
	return order
}

func isMissingConfig(err error) bool {
	_, ok := config.IsMissingConfig(err)
	return ok
}
