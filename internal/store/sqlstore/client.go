// internal/store/sqlstore/client.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	_ "github.com/lib/pq"
)

// Client persists the task record as a JSON document in a single-row
// table. Statements use $N placeholders and timestamps bound from Go so
// the same SQL runs on postgres in production and sqlite in tests.
type Client struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS enroll_task (
	key        VARCHAR(64) PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// NewClient opens a postgres-backed store
func NewClient(cfg config.StoreConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing database handle and ensures the schema
func NewWithDB(db *sql.DB) (*Client, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create enroll_task table: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Load returns the stored record, or schema defaults if none exists
func (c *Client) Load(ctx context.Context) (*models.TaskRecord, error) {
	query := `SELECT record FROM enroll_task WHERE key = $1`

	var data []byte
	err := c.db.QueryRowContext(ctx, query, store.RecordKey).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.NewTaskRecord(), nil
		}
		return nil, err
	}

	record := models.NewTaskRecord()
	if err := record.FromJSON(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task record: %w", err)
	}
	return record, nil
}

// Save overwrites the stored record
func (c *Client) Save(ctx context.Context, record *models.TaskRecord) error {
	data, err := record.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}

	query := `
		INSERT INTO enroll_task (key, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at`

	_, err = c.db.ExecContext(ctx, query, store.RecordKey, string(data), time.Now().UTC())
	return err
}
