package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const orderPaidEvent = "order.paid"

// MessageWriter is the subset of *kafka.Writer the channel uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvents publishes paid orders to a topic for downstream consumers.
// The writer is created on first send.
type OrderEvents struct {
	cfg config.KafkaConfig

	mu     sync.Mutex
	writer MessageWriter
}

func NewOrderEvents(cfg config.KafkaConfig) *OrderEvents {
	return &OrderEvents{cfg: cfg}
}

// NewOrderEventsWithWriter is used when the writer is managed elsewhere.
func NewOrderEventsWithWriter(cfg config.KafkaConfig, w MessageWriter) *OrderEvents {
	return &OrderEvents{cfg: cfg, writer: w}
}

func (c *OrderEvents) Name() string { return "order_events" }

type orderPaidPayload struct {
	Type       string                 `json:"type"`
	OrderID    string                 `json:"order_id,omitempty"`
	PaymentID  string                 `json:"payment_id"`
	Customer   domain.CustomerDetails `json:"customer"`
	Items      []domain.CartItem      `json:"items"`
	Total      string                 `json:"total"`
	Currency   string                 `json:"currency"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (c *OrderEvents) Send(ctx context.Context, ev domain.NotificationEvent) (Delivery, error) {
	if err := c.cfg.Validate(); err != nil {
		return Delivery{}, err
	}

	payload, err := json.Marshal(orderPaidPayload{
		Type:       orderPaidEvent,
		OrderID:    ev.OrderID,
		PaymentID:  ev.PaymentID,
		Customer:   ev.Customer,
		Items:      ev.Items,
		Total:      ev.Total.StringFixed(2),
		Currency:   ev.Currency,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal order event: %w", err)
	}

	key := ev.OrderID
	if key == "" {
		key = ev.PaymentID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(orderPaidEvent)},
		},
	}

	if err := c.getWriter().WriteMessages(ctx, msg); err != nil {
		return Delivery{}, fmt.Errorf("publish order event: %w", err)
	}
	return Delivery{}, nil
}

func (c *OrderEvents) getWriter() MessageWriter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		c.writer = &kafka.Writer{
			Addr:                   kafka.TCP(c.cfg.Brokers...),
			Topic:                  c.cfg.Topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
	}
	return c.writer
}

func (c *OrderEvents) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		return nil
	}
	err := c.writer.Close()
	c.writer = nil
	return err
}
