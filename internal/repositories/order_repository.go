package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	"github.com/cubazon/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrder inserts the order as a single immutable record. A uniqueness
// violation from the store is surfaced as a duplicate submission so the
// orchestrator can tell the client to reload rather than retry.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	query := `
		INSERT INTO orders (id, items, subtotal, shipping, discount, total, customer, payment_method, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		RETURNING id, created_at
	`

	err = r.DB.QueryRowContext(dbCtx, query,
		order.ID, itemsJSON, order.Subtotal, order.Shipping, order.Discount,
		order.Total, customerJSON, order.PaymentMethod, order.CouponCode,
		order.CreatedAt).Scan(&order.ID, &order.CreatedAt)
	if err != nil {

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return apperrors.DuplicateSubmissionError("Order was already processed").WithError(err)
		}

		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, items, subtotal, shipping, discount, total, customer, payment_method, COALESCE(coupon_code, ''), created_at
		FROM orders
		WHERE id = $1
	`

	order := &models.Order{}

	var itemsJSON, customerJSON []byte

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&order.ID, &itemsJSON, &order.Subtotal, &order.Shipping, &order.Discount,
		&order.Total, &customerJSON, &order.PaymentMethod, &order.CouponCode,
		&order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	if err := json.Unmarshal(customerJSON, &order.Customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}

	return order, nil
}
