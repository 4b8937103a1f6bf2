package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/pkg/database"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

//go:embed *.up.sql
var Migrations embed.FS

// OrderRepository persists order records in PostgreSQL. Line items and the
// delivery address are stored as JSONB.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order record.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	addressJSON, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("marshal delivery address: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, shopper_id, contact_email, status, items,
			total_amount, currency, delivery_address, payment_ref,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11
		)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.ShopperID,
		o.ContactEmail,
		o.Status,
		itemsJSON,
		o.TotalAmount,
		o.Currency,
		addressJSON,
		nullableString(o.PaymentRef),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

const orderColumns = `id, shopper_id, contact_email, status, items,
		total_amount, currency, delivery_address, payment_ref,
		created_at, updated_at`

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return order, nil
}

// ListByShopper returns the shopper's orders, newest first.
func (r *OrderRepository) ListByShopper(ctx context.Context, shopperID string, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE shopper_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, shopperID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order       domain.Order
		itemsJSON   []byte
		addressJSON []byte
		paymentRef  *string
	)

	if err := row.Scan(
		&order.ID,
		&order.ShopperID,
		&order.ContactEmail,
		&order.Status,
		&itemsJSON,
		&order.TotalAmount,
		&order.Currency,
		&addressJSON,
		&paymentRef,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if order.Items == nil {
		order.Items = []domain.CartItem{}
	}

	if addressJSON != nil {
		if err := json.Unmarshal(addressJSON, &order.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("unmarshal delivery address: %w", err)
		}
	}

	if paymentRef != nil {
		order.PaymentRef = *paymentRef
	}

	return &order, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
