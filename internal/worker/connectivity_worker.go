package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/connectivity"
)

// ConnectivityWorker probes the backend on an interval and feeds the result
// into the monitor, which turns state changes into reachable/unreachable
// events.
type ConnectivityWorker struct {
	probe    connectivity.Probe
	monitor  *connectivity.Monitor
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewConnectivityWorker(
	probe connectivity.Probe,
	monitor *connectivity.Monitor,
	interval time.Duration,
	logger *zap.Logger,
) *ConnectivityWorker {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &ConnectivityWorker{probe: probe, monitor: monitor, interval: interval, timeout: timeout, logger: logger}
}

// Run probes once immediately, then every interval until ctx is cancelled.
// A non-positive interval disables polling; state then only changes through
// explicit connectivity events.
func (cw *ConnectivityWorker) Run(ctx context.Context) {
	if cw.interval <= 0 {
		cw.logger.Info("connectivity polling disabled")
		return
	}

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	cw.logger.Info("connectivity worker started", zap.Duration("interval", cw.interval))
	cw.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			cw.logger.Info("connectivity worker stopping")
			return
		case <-ticker.C:
			cw.poll(ctx)
		}
	}
}

func (cw *ConnectivityWorker) poll(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, cw.timeout)
	defer cancel()

	err := cw.probe.Check(pctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		cw.logger.Debug("connectivity probe failed", zap.Error(err))
	}
	cw.monitor.Set(err == nil)
}
