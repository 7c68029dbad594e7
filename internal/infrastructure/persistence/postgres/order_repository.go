package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrDuplicateOrder = errors.New("order already exists")

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

const selectOrder = `
	SELECT id, receipt, amount_minor, currency, total::text, notes, customer, items,
	       status, payment_id, chat_message_id, created_at, paid_at, shipped_at, updated_at
	FROM orders
`

func (r *OrderRepository) Save(ctx context.Context, rec *domain.OrderRecord) error {
	query := `
		INSERT INTO orders (
			id, receipt, amount_minor, currency, total, notes, customer, items,
			status, payment_id, chat_message_id, created_at, paid_at, shipped_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	notes, err := json.Marshal(rec.Notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}
	customer, err := json.Marshal(rec.Customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		rec.ID,
		rec.Receipt,
		rec.Amount,
		rec.Currency,
		rec.Total.StringFixed(2),
		notes,
		customer,
		items,
		string(rec.Status),
		rec.PaymentID,
		rec.ChatMessageID,
		rec.CreatedAt,
		rec.PaidAt,
		rec.ShippedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, rec.ID)
		}
		return fmt.Errorf("failed to save order: %w", err)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.OrderRecord, error) {
	row := r.db.QueryRow(ctx, selectOrder+` WHERE id = $1`, id)
	rec, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewOrderNotFoundError(id)
	}
	return rec, err
}

func (r *OrderRepository) FindByChatMessageID(ctx context.Context, messageID int64) (*domain.OrderRecord, error) {
	row := r.db.QueryRow(ctx, selectOrder+` WHERE chat_message_id = $1`, messageID)
	rec, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewOrderNotFoundError("for chat message " + strconv.FormatInt(messageID, 10))
	}
	return rec, err
}

// UpdateStatus writes the lifecycle fields of rec.
func (r *OrderRepository) UpdateStatus(ctx context.Context, rec *domain.OrderRecord) error {
	query := `
		UPDATE orders
		SET status = $2, payment_id = $3, paid_at = $4, shipped_at = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		rec.ID,
		string(rec.Status),
		rec.PaymentID,
		rec.PaidAt,
		rec.ShippedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewOrderNotFoundError(rec.ID)
	}
	return nil
}

func (r *OrderRepository) AttachChatMessage(ctx context.Context, orderID, paymentID string, messageID int64) error {
	query := `
		UPDATE orders SET chat_message_id = $3, updated_at = $4
		WHERE id = $1 AND payment_id = $2 AND status = $5 AND chat_message_id IS NULL`

	tag, err := r.db.Exec(ctx, query, orderID, paymentID, messageID, time.Now().UTC(), string(domain.OrderStatusPaid))
	if err != nil {
		return fmt.Errorf("failed to attach chat message: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to attach chat message: %w", err)
	}
	if !exists {
		return domain.NewOrderNotFoundError(orderID)
	}
	return domain.NewChatLinkRejectedError(orderID)
}

// scanOrder converts a database row into a domain OrderRecord.
func scanOrder(row pgx.Row) (*domain.OrderRecord, error) {
	var (
		rec                    domain.OrderRecord
		total, status          string
		notes, customer, items []byte
	)

	err := row.Scan(
		&rec.ID, &rec.Receipt, &rec.Amount, &rec.Currency, &total, &notes, &customer, &items,
		&status, &rec.PaymentID, &rec.ChatMessageID, &rec.CreatedAt, &rec.PaidAt, &rec.ShippedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	rec.Status = domain.OrderStatus(status)
	if rec.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to parse order total: %w", err)
	}
	if err := json.Unmarshal(notes, &rec.Notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	if err := json.Unmarshal(customer, &rec.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	return &rec, nil
}
