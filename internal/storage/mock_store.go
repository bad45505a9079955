package storage

import (
	"context"
	"sync"

	"github.com/ricirt/offline-sync/internal/domain"
)

// Mock is a hand-written, in-memory KeyValue used in unit tests.
type Mock struct {
	mu     sync.RWMutex
	values map[string]string
	writes int

	// Optional error overrides; tests set these to simulate failure paths.
	ReadErr  error
	WriteErr error
}

func NewMock() *Mock {
	return &Mock{values: make(map[string]string)}
}

func (m *Mock) Read(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *Mock) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values[key] = value
	m.writes++
	return nil
}

// Set seeds a raw value, bypassing WriteErr.
func (m *Mock) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// SetWriteErr swaps the write failure under the lock so it can be toggled
// while a sync pass is running.
func (m *Mock) SetWriteErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteErr = err
}

// Writes reports how many successful writes have happened.
func (m *Mock) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

var _ KeyValue = (*Mock)(nil)
