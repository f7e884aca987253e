package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// DeadLetterRepository handles database operations for dead letter messages
type DeadLetterRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *database.Database, logger logger.Logger) *DeadLetterRepository {
	return &DeadLetterRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new dead letter message
func (r *DeadLetterRepository) Create(ctx context.Context, message *models.DeadLetterMessage) error {
	query := `
		INSERT INTO dead_letter_messages (
			original_message_id, aggregate_type, aggregate_id, event_type,
			payload, error_message, failure_reason, created_at,
			retry_count, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id
	`

	var id int64

	err := r.db.DB.QueryRowContext(
		ctx,
		query,
		message.OriginalMessageID,
		message.AggregateType,
		message.AggregateID,
		message.EventType,
		message.Payload,
		message.ErrorMessage,
		message.FailureReason,
		message.CreatedAt,
		message.RetryCount,
		message.Status,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create dead letter message", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	message.ID = id
	return nil
}

// GetMessages retrieves dead letter messages with the given status
func (r *DeadLetterRepository) GetMessages(ctx context.Context, status models.DeadLetterStatus, limit, offset int) ([]*models.DeadLetterMessage, error) {
	query := `
		SELECT id, original_message_id, aggregate_type, aggregate_id, event_type,
		       payload, error_message, failure_reason, created_at, last_retry_at,
		       retry_count, status, resolved_at
		FROM dead_letter_messages
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(ctx, &messages, query, status, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get dead letter messages", "error", err, "status", status)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// GetMessage retrieves a dead letter message by ID
func (r *DeadLetterRepository) GetMessage(ctx context.Context, id int64) (*models.DeadLetterMessage, error) {
	query := `
		SELECT id, original_message_id, aggregate_type, aggregate_id, event_type,
		       payload, error_message, failure_reason, created_at, last_retry_at,
		       retry_count, status, resolved_at
		FROM dead_letter_messages
		WHERE id = $1
	`

	var message models.DeadLetterMessage

	err := r.db.DB.GetContext(ctx, &message, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dead letter message", "error", err, "messageID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &message, nil
}

// MarkForRetry flags a dead letter message for reprocessing
func (r *DeadLetterRepository) MarkForRetry(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.DeadLetterStatusRetrying, id, models.DeadLetterStatusPending)

	if err != nil {
		r.logger.Error("Failed to mark dead letter message for retry", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetRetryingMessages retrieves messages flagged for reprocessing
func (r *DeadLetterRepository) GetRetryingMessages(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error) {
	query := `
		SELECT id, original_message_id, aggregate_type, aggregate_id, event_type,
		       payload, error_message, failure_reason, created_at, last_retry_at,
		       retry_count, status, resolved_at
		FROM dead_letter_messages
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(ctx, &messages, query, models.DeadLetterStatusRetrying, limit)

	if err != nil {
		r.logger.Error("Failed to get retrying dead letter messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// MarkRetryResult records the outcome of a retry attempt
func (r *DeadLetterRepository) MarkRetryResult(ctx context.Context, id int64, success bool, errorMessage string) error {
	now := time.Now().UTC()

	var err error
	if success {
		query := `
			UPDATE dead_letter_messages
			SET status = $1, last_retry_at = $2, retry_count = retry_count + 1, resolved_at = $2
			WHERE id = $3
		`
		_, err = r.db.DB.ExecContext(ctx, query, models.DeadLetterStatusResolved, now, id)
	} else {
		query := `
			UPDATE dead_letter_messages
			SET status = $1, last_retry_at = $2, retry_count = retry_count + 1, error_message = $3
			WHERE id = $4
		`
		_, err = r.db.DB.ExecContext(ctx, query, models.DeadLetterStatusPending, now, errorMessage, id)
	}

	if err != nil {
		r.logger.Error("Failed to record dead letter retry result", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// Discard marks a dead letter message as permanently discarded
func (r *DeadLetterRepository) Discard(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1
		WHERE id = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, models.DeadLetterStatusDiscarded, id)

	if err != nil {
		r.logger.Error("Failed to discard dead letter message", "error", err, "messageID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of dead letter messages with the given status
func (r *DeadLetterRepository) Count(ctx context.Context, status models.DeadLetterStatus) (int, error) {
	query := `SELECT COUNT(*) FROM dead_letter_messages WHERE status = $1`

	var count int

	err := r.db.DB.GetContext(ctx, &count, query, status)

	if err != nil {
		r.logger.Error("Failed to count dead letter messages", "error", err, "status", status)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}
