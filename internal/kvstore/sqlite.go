package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
	_ "modernc.org/sqlite" // Register driver
)

const (
	dirPermissions = 0o750
	createKVTable  = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
)

// SQLiteStore implements core.KeyValueStore on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and prepares the table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	err := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Single writer avoids SQLITE_BUSY between concurrent saves.
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec(createKVTable)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("failed to query key '%s': %w", key, err)
	}

	return value, nil
}

// Set replaces the value stored under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store key '%s': %w", key, err)
	}

	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}

	return nil
}
