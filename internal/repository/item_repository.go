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

// ErrVersionConflict is returned when an item changed between read and
// write; the caller re-fetches and retries
var ErrVersionConflict = errors.New("item modified concurrently")

const itemColumns = `
	id, order_id, name, current_stage, status, assigned_department,
	assigned_to, assigned_to_name, previous_department, previous_assigned_to,
	current_substage, substage_status, substage_started_at, stage_sequence,
	need_design, design_only, delivery_date, outsource_vendor,
	outsource_details, specifications, last_workflow_note, version,
	created_at, updated_at`

// ItemRepository handles database operations for order items
type ItemRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *database.Database, logger logger.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new item within a transaction
func (r *ItemRepository) CreateInTx(tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (
			id, order_id, name, current_stage, status, assigned_department,
			assigned_to, assigned_to_name, previous_department, previous_assigned_to,
			current_substage, substage_status, substage_started_at, stage_sequence,
			need_design, design_only, delivery_date, outsource_vendor,
			outsource_details, specifications, last_workflow_note, version,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
	`

	_, err := tx.Exec(
		query,
		item.ID, item.OrderID, item.Name, item.CurrentStage, item.Status,
		item.AssignedDepartment, item.AssignedTo, item.AssignedToName,
		item.PreviousDepartment, item.PreviousAssignedTo,
		item.CurrentSubstage, item.SubstageStatus, item.SubstageStartedAt,
		item.StageSequence, item.NeedDesign, item.DesignOnly,
		item.DeliveryDate, item.OutsourceVendor, item.OutsourceDetails,
		item.Specifications, item.LastWorkflowNote, item.Version,
		item.CreatedAt, item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order item in transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an item by its ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE id = $1`

	var item models.OrderItem
	err := r.db.DB.GetContext(ctx, &item, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order item by ID", "error", err, "itemID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &item, nil
}

// GetByOrderID retrieves all items belonging to an order
func (r *ItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`

	var items []*models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get items by order ID", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// GetByStage retrieves items currently located in the given stage
func (r *ItemRepository) GetByStage(ctx context.Context, stage models.Stage, limit, offset int) ([]*models.OrderItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM order_items
		WHERE current_stage = $1
		ORDER BY delivery_date ASC NULLS LAST, created_at ASC
		LIMIT $2 OFFSET $3`

	var items []*models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, stage, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get items by stage", "error", err, "stage", stage)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// GetByDepartment retrieves items visible on a department's board:
// items physically in the stage plus items assigned to the department
// while sitting elsewhere (approval loops)
func (r *ItemRepository) GetByDepartment(ctx context.Context, dept string, limit, offset int) ([]*models.OrderItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM order_items
		WHERE current_stage = $1 OR assigned_department = $1
		ORDER BY delivery_date ASC NULLS LAST, created_at ASC
		LIMIT $2 OFFSET $3`

	var items []*models.OrderItem
	err := r.db.DB.SelectContext(ctx, &items, query, dept, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get items by department", "error", err, "department", dept)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return items, nil
}

// UpdateInTx writes the item state guarded by a compare-and-swap on
// the version column. Two concurrent writers cannot both advance the
// same item; the loser gets ErrVersionConflict.
func (r *ItemRepository) UpdateInTx(tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		UPDATE order_items SET
			current_stage = $1, status = $2, assigned_department = $3,
			assigned_to = $4, assigned_to_name = $5, previous_department = $6,
			previous_assigned_to = $7, current_substage = $8, substage_status = $9,
			substage_started_at = $10, stage_sequence = $11, need_design = $12,
			design_only = $13, delivery_date = $14, outsource_vendor = $15,
			outsource_details = $16, specifications = $17, last_workflow_note = $18,
			version = version + 1, updated_at = $19
		WHERE id = $20 AND version = $21
	`

	result, err := tx.Exec(
		query,
		item.CurrentStage, item.Status, item.AssignedDepartment,
		item.AssignedTo, item.AssignedToName, item.PreviousDepartment,
		item.PreviousAssignedTo, item.CurrentSubstage, item.SubstageStatus,
		item.SubstageStartedAt, item.StageSequence, item.NeedDesign,
		item.DesignOnly, item.DeliveryDate, item.OutsourceVendor,
		item.OutsourceDetails, item.Specifications, item.LastWorkflowNote,
		item.UpdatedAt, item.ID, item.Version,
	)

	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	item.Version++
	return nil
}
