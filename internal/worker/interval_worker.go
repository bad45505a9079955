package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// IntervalWorker fires a sync trigger on a fixed interval. It adds a natural
// trigger source; it does not queue triggers that the scheduler dropped.
type IntervalWorker struct {
	sched    *Scheduler
	interval time.Duration
	logger   *zap.Logger
}

func NewIntervalWorker(sched *Scheduler, interval time.Duration, logger *zap.Logger) *IntervalWorker {
	return &IntervalWorker{sched: sched, interval: interval, logger: logger}
}

// Run ticks every interval until ctx is cancelled. A non-positive interval
// disables the worker.
func (iw *IntervalWorker) Run(ctx context.Context) {
	if iw.interval <= 0 {
		return
	}

	ticker := time.NewTicker(iw.interval)
	defer ticker.Stop()

	iw.logger.Info("interval sync worker started", zap.Duration("interval", iw.interval))

	for {
		select {
		case <-ctx.Done():
			iw.logger.Info("interval sync worker stopping")
			return
		case <-ticker.C:
			iw.sched.Trigger(ReasonInterval)
		}
	}
}
