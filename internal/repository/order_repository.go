package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new order within a transaction
func (r *OrderRepository) CreateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (id, order_number, customer_ref, delivery_date, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(
		query,
		order.ID,
		order.OrderNumber,
		order.CustomerRef,
		order.DeliveryDate,
		order.IsCompleted,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order in transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, order_number, customer_ref, delivery_date, is_completed, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetByNumber retrieves an order by its human-readable number
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	query := `
		SELECT id, order_number, customer_ref, delivery_date, is_completed, created_at, updated_at
		FROM orders
		WHERE order_number = $1
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, number)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by number", "error", err, "orderNumber", number)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetAll retrieves orders with limit and offset, newest first
func (r *OrderRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, order_number, customer_ref, delivery_date, is_completed, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var orders []*models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all orders", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// MarkCompleted sets the order-level completion flag
func (r *OrderRepository) MarkCompleted(ctx context.Context, id string) error {
	query := `
		UPDATE orders
		SET is_completed = TRUE, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.GetCurrentTime(), id)

	if err != nil {
		r.logger.Error("Failed to mark order completed", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCascadeInTx removes an order together with its items and
// timeline. Orders are only ever destroyed through this explicit
// cascade.
func (r *OrderRepository) DeleteCascadeInTx(tx *sqlx.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM timeline_entries WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order timeline: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM orders WHERE id = $1`, id)

	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Count counts the total number of orders
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders`

	err := r.db.DB.GetContext(ctx, &count, query)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}
