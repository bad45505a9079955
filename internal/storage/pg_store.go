package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/offline-sync/internal/domain"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a KeyValue backed by the kv_store table in PostgreSQL.
// The schema is created by db.Migrate.
func NewPgStore(pool *pgxpool.Pool) KeyValue {
	return &pgStore{pool: pool}
}

func (s *pgStore) Read(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv %s: %w", key, err)
	}
	return value, nil
}

func (s *pgStore) Write(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}
