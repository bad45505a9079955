package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/config"
	"github.com/ricirt/offline-sync/internal/db"
)

// Open builds the backend selected by cfg.StorageBackend. The returned close
// func releases whatever connection the backend holds and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KeyValue, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.BackendFile:
		s, err := NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using file storage", zap.String("dir", cfg.DataDir))
		return s, noop, nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.SQLitePath))
		return NewSQLiteStore(conn), func() { _ = conn.Close() }, nil

	case config.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using redis storage")
		return NewRedisStore(client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info("using postgres storage, migrations applied")
		return NewPgStore(pool), pool.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
