package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/queue"
	"github.com/ricirt/offline-sync/internal/worker"
)

// Scheduler is the part of worker.Scheduler the service drives.
type Scheduler interface {
	Trigger(reason worker.Reason) bool
	InProgress() bool
	LastPass() (worker.PassResult, bool)
}

// Connectivity is the part of connectivity.Monitor the service drives.
type Connectivity interface {
	Online() bool
	Set(reachable bool) bool
}

// Status is the observability view served to UI badges and debug panels.
type Status struct {
	Pending    int                `json:"pending"`
	Total      int                `json:"total"`
	Online     bool               `json:"online"`
	InProgress bool               `json:"sync_in_progress"`
	LastPass   *worker.PassResult `json:"last_pass,omitempty"`
}

// SyncService is the single entry point producers and observers use.
// It is constructed once by the application root and passed to whoever
// needs it; nothing reaches the queue through a global.
type SyncService struct {
	store      *queue.Store
	sched      Scheduler
	conn       Connectivity
	maxPending int
	now        func() time.Time
	logger     *zap.Logger
}

func NewSyncService(
	store *queue.Store,
	sched Scheduler,
	conn Connectivity,
	maxPending int,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		store: store, sched: sched, conn: conn,
		maxPending: maxPending, now: time.Now, logger: logger,
	}
}

// Enqueue validates req, appends a new record to the durable log and, if
// the acceptor is reachable, kicks off a sync pass in the background.
// It returns once the record is persisted locally and never waits on the
// network. A failed local persist is logged, not returned: the record is
// held in memory and written by the next successful persist.
func (s *SyncService) Enqueue(ctx context.Context, req domain.EnqueueRequest) (*domain.MutationRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.maxPending > 0 && s.store.PendingCount() >= s.maxPending {
		return nil, domain.ErrQueueFull
	}

	rec := domain.NewRecord(req, s.now())
	if err := s.store.Append(ctx, rec); err != nil {
		s.logger.Warn("mutation held in memory only",
			zap.String("record_id", rec.ID), zap.Error(err))
	}

	s.logger.Debug("mutation enqueued",
		zap.String("record_id", rec.ID),
		zap.String("action", string(rec.Action)),
		zap.String("entity", string(rec.Entity)),
	)

	s.sched.Trigger(worker.ReasonEnqueue)
	return &rec, nil
}

// PendingCount never triggers a sync pass.
func (s *SyncService) PendingCount() int {
	return s.store.PendingCount()
}

// Snapshot returns a read-only copy of the whole log.
func (s *SyncService) Snapshot() []domain.MutationRecord {
	return s.store.Snapshot()
}

// TriggerSync is the explicit manual trigger. It reports whether a pass
// started; false means offline or a pass is already running.
func (s *SyncService) TriggerSync() bool {
	return s.sched.Trigger(worker.ReasonManual)
}

// SetConnectivity records an externally observed connectivity change.
// It reports whether the state actually changed.
func (s *SyncService) SetConnectivity(reachable bool) bool {
	return s.conn.Set(reachable)
}

func (s *SyncService) Status() Status {
	st := Status{
		Pending:    s.store.PendingCount(),
		Total:      s.store.Len(),
		Online:     s.conn.Online(),
		InProgress: s.sched.InProgress(),
	}
	if last, ok := s.sched.LastPass(); ok {
		st.LastPass = &last
	}
	return st
}
