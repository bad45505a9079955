package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ricirt/offline-sync/internal/domain"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a KeyValue backed by the kv_store table of an
// already-migrated SQLite database (see db.OpenSQLite).
func NewSQLiteStore(db *sql.DB) KeyValue {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Read(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv %s: %w", key, err)
	}
	return value, nil
}

func (s *sqliteStore) Write(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}
