// Package queue holds the durable, process-local log of pending mutation
// records.
//
// The whole log is serialized as one JSON array under a single storage key
// and rewritten on every persist. That is O(n) per write, which stays cheap
// because the log is bounded: synced records age out after the retention
// window and pending records are capped by the service (MAX_PENDING).
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/storage"
)

// Store owns every MutationRecord for its whole life. Producers and the UI
// never touch the slice directly; they go through Append, Snapshot and
// PendingCount. The mutex also serializes Persist, so two writes of the
// durable log can never interleave.
type Store struct {
	mu      sync.Mutex
	kv      storage.KeyValue
	key     string
	records []domain.MutationRecord
	logger  *zap.Logger

	// onPersistError is optional (nil = no-op); main wires it to a counter.
	onPersistError func()
}

func New(kv storage.KeyValue, key string, logger *zap.Logger) *Store {
	return &Store{kv: kv, key: key, logger: logger, onPersistError: func() {}}
}

// OnPersistError registers a hook invoked whenever a durable write fails.
func (s *Store) OnPersistError(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	s.mu.Lock()
	s.onPersistError = fn
	s.mu.Unlock()
}

// Load replaces the in-memory log with the persisted one. Absent, unreadable
// or corrupt state yields an empty log; Load never fails process start.
// It returns the number of records loaded.
func (s *Store) Load(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil

	raw, err := s.kv.Read(ctx, s.key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Info("no persisted queue, starting empty")
		return 0
	case err != nil:
		s.logger.Warn("persisted queue unreadable, starting empty", zap.Error(err))
		return 0
	}

	var records []domain.MutationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("persisted queue corrupt, starting empty", zap.Error(err))
		return 0
	}

	s.records = records
	s.logger.Info("queue loaded",
		zap.Int("records", len(records)),
		zap.Int("pending", s.pendingLocked()))
	return len(records)
}

// Append adds rec to the end of the log and persists the full log before
// returning. A persist failure is returned but is not fatal: the record
// stays in memory and the next persist carries it to durable storage.
func (s *Store) Append(ctx context.Context, rec domain.MutationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec.Clone())
	return s.persistLocked(ctx)
}

// Persist writes the whole in-memory log to durable storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	records := s.records
	if records == nil {
		records = []domain.MutationRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := s.kv.Write(ctx, s.key, string(data)); err != nil {
		s.onPersistError()
		s.logger.Warn("queue persist failed, in-memory log stays authoritative",
			zap.Int("records", len(s.records)), zap.Error(err))
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the whole log in enqueue order.
func (s *Store) Snapshot() []domain.MutationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MutationRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Pending returns copies of the unsynced records in enqueue order.
func (s *Store) Pending() []domain.MutationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.MutationRecord
	for _, r := range s.records {
		if !r.Synced {
			out = append(out, r.Clone())
		}
	}
	return out
}

// PendingCount is a pure query; it never triggers a sync pass.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Store) pendingLocked() int {
	n := 0
	for _, r := range s.records {
		if !r.Synced {
			n++
		}
	}
	return n
}

// Len returns the total number of records, synced or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// MarkSynced flips the record with the given id to synced. It reports false
// when the id is unknown or the record was already synced.
// The change is in memory only; the executor persists once per pass.
func (s *Store) MarkSynced(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		if s.records[i].Synced {
			return false
		}
		s.records[i].Synced = true
		return true
	}
	return false
}

// Prune drops synced records older than retention and returns how many were
// removed. Unsynced records are kept regardless of age.
func (s *Store) Prune(now time.Time, retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.Synced && r.Age(now) > retention {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	// clear the tail so pruned payloads can be collected
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = domain.MutationRecord{}
	}
	s.records = kept
	return removed
}
