package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDelivered is a durable delivered-ID store, for deployments that
// must not re-push across restarts.
type SQLiteDelivered struct {
	db *sql.DB
}

// NewSQLiteDelivered opens (creating if needed) the delivered-ID database.
func NewSQLiteDelivered(dbPath string) (*SQLiteDelivered, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS delivered (
			post_id      TEXT PRIMARY KEY,
			delivered_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteDelivered{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteDelivered) Close() error {
	return s.db.Close()
}

func (s *SQLiteDelivered) Contains(ctx context.Context, id string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM delivered WHERE post_id = ?`, id)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query delivered id: %w", err)
	}
	return true, nil
}

func (s *SQLiteDelivered) Add(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO delivered (post_id, delivered_at)
		VALUES (?, ?)
	`, id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record delivered id: %w", err)
	}
	return nil
}
