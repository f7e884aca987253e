package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/printcraft/order-workflow-api/internal/database"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// SettingsRepository is the generic keyed settings store used for
// admin-editable configuration like the production stage catalog
type SettingsRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *database.Database, logger logger.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// GetSetting reads the raw JSON value stored under key
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT setting_value FROM app_settings WHERE setting_key = $1`

	var value []byte
	err := r.db.DB.GetContext(ctx, &value, query, key)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get setting", "error", err, "key", key)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return value, nil
}

// PutSetting upserts the raw JSON value stored under key
func (r *SettingsRepository) PutSetting(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO app_settings (setting_key, setting_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key)
		DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query, key, value, models.GetCurrentTime())

	if err != nil {
		r.logger.Error("Failed to put setting", "error", err, "key", key)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
