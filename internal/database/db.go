package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/printcraft/order-workflow-api/internal/config"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// BeginTx starts a transaction
func (d *Database) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := d.DB.BeginTxx(ctx, nil)

	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return tx, nil
}

// RunMigrations creates the schema. A real deployment would use a
// migration tool; table creation here keeps local setup to one step.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(50) PRIMARY KEY,
		order_number VARCHAR(20) UNIQUE NOT NULL,
		customer_ref VARCHAR(100) NOT NULL,
		delivery_date TIMESTAMP,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE SEQUENCE IF NOT EXISTS order_number_seq START 50000;

	CREATE TABLE IF NOT EXISTS order_items (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		name VARCHAR(200) NOT NULL,
		current_stage VARCHAR(20) NOT NULL,
		status VARCHAR(50) NOT NULL,
		assigned_department VARCHAR(20) NOT NULL DEFAULT '',
		assigned_to VARCHAR(50) NOT NULL DEFAULT '',
		assigned_to_name VARCHAR(100) NOT NULL DEFAULT '',
		previous_department VARCHAR(20) NOT NULL DEFAULT '',
		previous_assigned_to VARCHAR(50) NOT NULL DEFAULT '',
		current_substage VARCHAR(50) NOT NULL DEFAULT '',
		substage_status VARCHAR(20) NOT NULL DEFAULT '',
		substage_started_at TIMESTAMP,
		stage_sequence JSONB NOT NULL DEFAULT '[]',
		need_design BOOLEAN NOT NULL DEFAULT FALSE,
		design_only BOOLEAN NOT NULL DEFAULT FALSE,
		delivery_date TIMESTAMP,
		outsource_vendor VARCHAR(100) NOT NULL DEFAULT '',
		outsource_details TEXT NOT NULL DEFAULT '',
		specifications JSONB NOT NULL DEFAULT '{}',
		last_workflow_note TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_items_order_id ON order_items(order_id);
	CREATE INDEX IF NOT EXISTS idx_items_stage ON order_items(current_stage);
	CREATE INDEX IF NOT EXISTS idx_items_department ON order_items(assigned_department);

	CREATE TABLE IF NOT EXISTS timeline_entries (
		id SERIAL PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL,
		item_id VARCHAR(50) NOT NULL,
		stage VARCHAR(20) NOT NULL,
		action VARCHAR(50) NOT NULL,
		performed_by VARCHAR(50) NOT NULL,
		performed_by_name VARCHAR(100) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_timeline_item ON timeline_entries(item_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_timeline_order ON timeline_entries(order_id);

	CREATE TABLE IF NOT EXISTS app_settings (
		setting_key VARCHAR(100) PRIMARY KEY,
		setting_value JSONB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Outbox table for side-effect dispatch
	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

	CREATE TABLE IF NOT EXISTS dead_letter_messages (
		id SERIAL PRIMARY KEY,
		original_message_id BIGINT NOT NULL,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		retry_count INT NOT NULL DEFAULT 0,
		last_retry_at TIMESTAMP,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dlq_status ON dead_letter_messages(status);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// NextOrderNumber draws the next value for human-readable order numbers
func (d *Database) NextOrderNumber(ctx context.Context) (int64, error) {
	var seq int64

	err := d.DB.GetContext(ctx, &seq, `SELECT nextval('order_number_seq')`)

	if err != nil {
		return 0, fmt.Errorf("failed to get next order number: %w", err)
	}

	return seq, nil
}
