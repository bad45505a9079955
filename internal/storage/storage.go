// Package storage provides the durable key-value substrate the offline queue
// persists into. Every backend stores a whole value per key and replaces it
// atomically on write.
package storage

import "context"

// KeyValue defines the persistence operations the queue store relies on.
// Read returns domain.ErrNotFound when the key has never been written.
// Tests use the in-memory Mock (mock_store.go).
type KeyValue interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
}
