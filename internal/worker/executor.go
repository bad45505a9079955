package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/acceptor"
	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/queue"
	"github.com/ricirt/offline-sync/internal/ratelimiter"
)

// persistTimeout bounds the end-of-pass write even when the pass context
// was cancelled by shutdown.
const persistTimeout = 10 * time.Second

// MetricHooks carries the metric callback functions injected by main.
// Any field may be nil.
type MetricHooks struct {
	OnAccepted func(entity domain.Entity, latency time.Duration)
	OnFailed   func(entity domain.Entity, outcome domain.Outcome)
	OnPass     func(result PassResult)
	OnDropped  func(reason Reason)
}

func (h MetricHooks) withDefaults() MetricHooks {
	if h.OnAccepted == nil {
		h.OnAccepted = func(domain.Entity, time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(domain.Entity, domain.Outcome) {}
	}
	if h.OnPass == nil {
		h.OnPass = func(PassResult) {}
	}
	if h.OnDropped == nil {
		h.OnDropped = func(Reason) {}
	}
	return h
}

// PassResult summarizes one sync pass.
type PassResult struct {
	Reason      Reason        `json:"reason"`
	Attempted   int           `json:"attempted"`
	Accepted    int           `json:"accepted"`
	Failed      int           `json:"failed"`
	Pruned      int           `json:"pruned"`
	Interrupted bool          `json:"interrupted"`
	PersistErr  string        `json:"persist_error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Executor drains pending records against the acceptor. It is not safe to
// run two passes at once; the Scheduler guarantees it never happens.
type Executor struct {
	store     *queue.Store
	acc       acceptor.Acceptor
	limiter   *ratelimiter.EntityLimiters
	timeout   time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
	hooks     MetricHooks
}

// NewExecutor constructs an executor. limiter may be nil; a zero timeout
// means acceptor calls are bounded only by the pass context.
func NewExecutor(
	store *queue.Store,
	acc acceptor.Acceptor,
	limiter *ratelimiter.EntityLimiters,
	timeout time.Duration,
	retention time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Executor {
	return &Executor{
		store: store, acc: acc, limiter: limiter,
		timeout: timeout, retention: retention,
		now: time.Now, logger: logger, hooks: hooks.withDefaults(),
	}
}

// WithClock overrides the wall clock used for retention pruning.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// RunPass offers every record that was pending when the pass started to the
// acceptor, one at a time and in enqueue order. A failed or timed-out record
// stays pending and never blocks the ones behind it. Records enqueued after
// the pass started wait for the next pass.
//
// After the loop, synced records older than the retention window are pruned
// and the log is persisted exactly once. Cancelling ctx stops the loop early
// but pruning and persistence still happen.
func (e *Executor) RunPass(ctx context.Context, reason Reason) PassResult {
	started := time.Now()
	res := PassResult{Reason: reason, StartedAt: started}

	pending := e.store.Pending()
	e.logger.Debug("sync pass started",
		zap.String("reason", string(reason)), zap.Int("pending", len(pending)))

	for _, rec := range pending {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, rec.Entity); err != nil {
				res.Interrupted = true
				break
			}
		}

		res.Attempted++
		outcome, latency, err := e.deliver(ctx, rec)
		if outcome != domain.OutcomeAccepted {
			res.Failed++
			e.hooks.OnFailed(rec.Entity, outcome)
			e.logger.Warn("mutation not accepted, will retry next pass",
				zap.String("record_id", rec.ID),
				zap.String("entity", string(rec.Entity)),
				zap.String("action", string(rec.Action)),
				zap.String("outcome", string(outcome)),
				zap.Error(err),
			)
			continue
		}

		e.store.MarkSynced(rec.ID)
		res.Accepted++
		e.hooks.OnAccepted(rec.Entity, latency)
	}

	res.Pruned = e.store.Prune(e.now(), e.retention)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	if err := e.store.Persist(persistCtx); err != nil {
		res.PersistErr = err.Error()
	}
	cancel()

	res.Duration = time.Since(started)
	e.hooks.OnPass(res)
	e.logger.Info("sync pass finished",
		zap.String("reason", string(reason)),
		zap.Int("attempted", res.Attempted),
		zap.Int("accepted", res.Accepted),
		zap.Int("failed", res.Failed),
		zap.Int("pruned", res.Pruned),
		zap.Bool("interrupted", res.Interrupted),
		zap.Duration("duration", res.Duration),
	)
	return res
}

func (e *Executor) deliver(ctx context.Context, rec domain.MutationRecord) (domain.Outcome, time.Duration, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	start := time.Now()
	err := e.acc.Accept(callCtx, rec)
	latency := time.Since(start)

	switch {
	case err == nil:
		return domain.OutcomeAccepted, latency, nil
	case ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return domain.OutcomeTimeout, latency, err
	default:
		return domain.OutcomeRejected, latency, err
	}
}
