package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// TimelineRepository handles the append-only audit log. Entries are
// only ever inserted or soft-deleted, never updated.
type TimelineRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *database.Database, logger logger.Logger) *TimelineRepository {
	return &TimelineRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx appends a timeline entry within a transaction, alongside
// the item update it records
func (r *TimelineRepository) CreateInTx(tx *sqlx.Tx, entry *models.TimelineEntry) error {
	query := `
		INSERT INTO timeline_entries (
			order_id, item_id, stage, action, performed_by,
			performed_by_name, notes, is_public, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id
	`

	var id int64

	err := tx.QueryRow(
		query,
		entry.OrderID,
		entry.ItemID,
		entry.Stage,
		entry.Action,
		entry.PerformedBy,
		entry.PerformedByName,
		entry.Notes,
		entry.IsPublic,
		entry.CreatedAt,
	).Scan(&id)

	if err != nil {
		return fmt.Errorf("failed to create timeline entry in transaction: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByItemID retrieves an item's timeline oldest first. When
// publicOnly is set only entries safe for the customer-facing tracking
// surface are returned.
func (r *TimelineRepository) GetByItemID(ctx context.Context, itemID string, publicOnly bool) ([]*models.TimelineEntry, error) {
	query := `
		SELECT id, order_id, item_id, stage, action, performed_by,
		       performed_by_name, notes, is_public, created_at, deleted_at
		FROM timeline_entries
		WHERE item_id = $1 AND deleted_at IS NULL
	`

	if publicOnly {
		query += ` AND is_public = TRUE`
	}

	query += ` ORDER BY created_at ASC, id ASC`

	var entries []*models.TimelineEntry
	err := r.db.DB.SelectContext(ctx, &entries, query, itemID)

	if err != nil {
		r.logger.Error("Failed to get timeline by item ID", "error", err, "itemID", itemID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return entries, nil
}

// GetByOrderID retrieves the whole order's timeline oldest first
func (r *TimelineRepository) GetByOrderID(ctx context.Context, orderID string, publicOnly bool) ([]*models.TimelineEntry, error) {
	query := `
		SELECT id, order_id, item_id, stage, action, performed_by,
		       performed_by_name, notes, is_public, created_at, deleted_at
		FROM timeline_entries
		WHERE order_id = $1 AND deleted_at IS NULL
	`

	if publicOnly {
		query += ` AND is_public = TRUE`
	}

	query += ` ORDER BY created_at ASC, id ASC`

	var entries []*models.TimelineEntry
	err := r.db.DB.SelectContext(ctx, &entries, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get timeline by order ID", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return entries, nil
}

// SoftDelete hides a chat-style entry without losing the audit record
func (r *TimelineRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE timeline_entries
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.GetCurrentTime(), id)

	if err != nil {
		r.logger.Error("Failed to soft delete timeline entry", "error", err, "entryID", id)
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

// CountByItemID counts live entries for an item
func (r *TimelineRepository) CountByItemID(ctx context.Context, itemID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM timeline_entries WHERE item_id = $1 AND deleted_at IS NULL`

	err := r.db.DB.GetContext(ctx, &count, query, itemID)

	if err != nil {
		r.logger.Error("Failed to count timeline entries", "error", err, "itemID", itemID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}
