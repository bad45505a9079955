package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/queue"
	"github.com/ricirt/offline-sync/internal/storage"
)

const key = "offline_queue"

func record(id string, enqueuedAt time.Time) domain.MutationRecord {
	return domain.MutationRecord{
		ID:         id,
		Action:     domain.ActionCreate,
		Entity:     domain.EntityBill,
		Payload:    json.RawMessage(fmt.Sprintf(`{"bill":%q}`, id)),
		EnqueuedAt: enqueuedAt.UnixMilli(),
	}
}

func newStore() (*queue.Store, *storage.Mock) {
	kv := storage.NewMock()
	return queue.New(kv, key, zap.NewNop()), kv
}

func TestStore_PendingCountAfterAppends(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := s.Append(ctx, record(fmt.Sprint(i), time.Now())); err != nil {
			t.Fatal(err)
		}
		if got := s.PendingCount(); got != i+1 {
			t.Fatalf("after %d appends expected pending=%d, got %d", i+1, i+1, got)
		}
	}
}

// TestStore_AppendPersistsBeforeReturning verifies a crash right after
// Append cannot lose the record: a fresh store over the same backend sees it.
func TestStore_AppendPersistsBeforeReturning(t *testing.T) {
	s, kv := newStore()
	ctx := context.Background()

	if err := s.Append(ctx, record("a", time.Now())); err != nil {
		t.Fatal(err)
	}

	reloaded := queue.New(kv, key, zap.NewNop())
	if n := reloaded.Load(ctx); n != 1 {
		t.Fatalf("expected 1 record after reload, got %d", n)
	}
}

func TestStore_RoundTripPreservesOrderAndContent(t *testing.T) {
	s, kv := newStore()
	ctx := context.Background()
	base := time.Now()

	for _, id := range []string{"first", "second", "third"} {
		_ = s.Append(ctx, record(id, base))
	}
	s.MarkSynced("second")
	if err := s.Persist(ctx); err != nil {
		t.Fatal(err)
	}
	before := s.Pending()

	reloaded := queue.New(kv, key, zap.NewNop())
	reloaded.Load(ctx)
	after := reloaded.Pending()

	if len(after) != len(before) {
		t.Fatalf("pending size changed: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || string(before[i].Payload) != string(after[i].Payload) ||
			before[i].EnqueuedAt != after[i].EnqueuedAt {
			t.Fatalf("record %d differs: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestStore_LoadToleratesBadState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(kv *storage.Mock)
	}{
		{"absent", func(*storage.Mock) {}},
		{"malformed json", func(kv *storage.Mock) { kv.Set(key, `[{"id":"x",`) }},
		{"wrong shape", func(kv *storage.Mock) { kv.Set(key, `{"id":"x"}`) }},
		{"read error", func(kv *storage.Mock) { kv.ReadErr = errors.New("disk gone") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, kv := newStore()
			tc.setup(kv)

			if n := s.Load(context.Background()); n != 0 {
				t.Fatalf("expected empty queue, got %d records", n)
			}
			if s.PendingCount() != 0 || len(s.Snapshot()) != 0 {
				t.Fatal("expected empty queue after bad load")
			}
		})
	}
}

func TestStore_PersistFailureIsNonFatal(t *testing.T) {
	s, kv := newStore()
	ctx := context.Background()

	failures := 0
	s.OnPersistError(func() { failures++ })

	kv.SetWriteErr(errors.New("quota exceeded"))
	if err := s.Append(ctx, record("a", time.Now())); err == nil {
		t.Fatal("expected persist error to be reported")
	}
	if s.PendingCount() != 1 {
		t.Fatal("record must stay in memory after a failed persist")
	}
	if failures != 1 {
		t.Fatalf("expected persist error hook to fire once, got %d", failures)
	}

	// next mutation reconciles durable state
	kv.SetWriteErr(nil)
	if err := s.Append(ctx, record("b", time.Now())); err != nil {
		t.Fatal(err)
	}
	reloaded := queue.New(kv, key, zap.NewNop())
	if n := reloaded.Load(ctx); n != 2 {
		t.Fatalf("expected both records durable, got %d", n)
	}
}

func TestStore_SnapshotIsReadOnlyCopy(t *testing.T) {
	s, _ := newStore()
	_ = s.Append(context.Background(), record("a", time.Now()))

	snap := s.Snapshot()
	snap[0].Synced = true
	snap[0].Payload[0] = '['

	if s.PendingCount() != 1 {
		t.Fatal("mutating the snapshot changed the store")
	}
	if got := s.Snapshot()[0].Payload; string(got) != `{"bill":"a"}` {
		t.Fatalf("payload mutated through snapshot: %s", got)
	}
}

func TestStore_MarkSyncedExactlyOnce(t *testing.T) {
	s, _ := newStore()
	_ = s.Append(context.Background(), record("a", time.Now()))

	if !s.MarkSynced("a") {
		t.Fatal("first MarkSynced should report a transition")
	}
	if s.MarkSynced("a") {
		t.Fatal("second MarkSynced must not report a transition")
	}
	if s.MarkSynced("unknown") {
		t.Fatal("unknown id must not report a transition")
	}
	if s.PendingCount() != 0 {
		t.Fatal("expected no pending records")
	}
}

func TestStore_PendingKeepsEnqueueOrder(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3", "4"} {
		_ = s.Append(ctx, record(id, time.Now()))
	}
	s.MarkSynced("2")

	got := s.Pending()
	want := []string{"1", "3", "4"}
	if len(got) != len(want) {
		t.Fatalf("expected %d pending, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestStore_PruneRetention(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	now := time.Now()
	day := 24 * time.Hour

	_ = s.Append(ctx, record("synced-8d", now.Add(-8*day)))
	_ = s.Append(ctx, record("synced-6d", now.Add(-6*day)))
	_ = s.Append(ctx, record("pending-30d", now.Add(-30*day)))
	s.MarkSynced("synced-8d")
	s.MarkSynced("synced-6d")

	if removed := s.Prune(now, 7*day); removed != 1 {
		t.Fatalf("expected 1 pruned record, got %d", removed)
	}

	ids := map[string]bool{}
	for _, r := range s.Snapshot() {
		ids[r.ID] = true
	}
	if ids["synced-8d"] {
		t.Fatal("synced record older than retention should be pruned")
	}
	if !ids["synced-6d"] {
		t.Fatal("synced record inside retention should be kept")
	}
	if !ids["pending-30d"] {
		t.Fatal("unsynced records are never pruned")
	}
}
