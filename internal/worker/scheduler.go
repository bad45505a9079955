package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Reason names what asked for a sync pass.
type Reason string

const (
	ReasonEnqueue   Reason = "enqueue"
	ReasonReachable Reason = "reachable"
	ReasonManual    Reason = "manual"
	ReasonStartup   Reason = "startup"
	ReasonInterval  Reason = "interval"
)

// OnlineChecker reports current reachability of the acceptor.
type OnlineChecker interface {
	Online() bool
}

// Scheduler decides when a sync pass runs and guarantees at most one pass is
// in flight. The gate is a single atomic flag: a trigger either flips it
// from idle to running and starts a pass, or is dropped.
//
// Dropped triggers are not queued. A pass drains the pending set it saw at
// its start, so a record enqueued while a pass is running waits for the next
// natural trigger (another enqueue while online, connectivity coming back,
// a manual or interval trigger). This relaxed freshness is intended.
type Scheduler struct {
	exec   *Executor
	online OnlineChecker
	logger *zap.Logger

	running atomic.Bool
	last    atomic.Pointer[PassResult]

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(exec *Executor, online OnlineChecker, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{exec: exec, online: online, logger: logger, ctx: ctx, cancel: cancel}
}

// Trigger starts a pass in the background if the acceptor is reachable and
// no pass is running. It reports whether a pass was started.
func (s *Scheduler) Trigger(reason Reason) bool {
	if !s.online.Online() {
		s.logger.Debug("offline, sync trigger ignored", zap.String("reason", string(reason)))
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.exec.hooks.OnDropped(reason)
		s.logger.Debug("sync pass in progress, trigger dropped", zap.String("reason", string(reason)))
		return false
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.running.Store(false)
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		res := s.exec.RunPass(s.ctx, reason)
		s.last.Store(&res)
	}()
	return true
}

// Reachable is the "became reachable" connectivity event.
func (s *Scheduler) Reachable() {
	s.Trigger(ReasonReachable)
}

// Unreachable is the "became unreachable" connectivity event. It performs no
// queue action; in-flight calls fail on their own and stay pending.
func (s *Scheduler) Unreachable() {
	s.logger.Debug("acceptor unreachable, waiting for connectivity")
}

// InProgress reports whether a pass is currently running.
func (s *Scheduler) InProgress() bool {
	return s.running.Load()
}

// LastPass returns the result of the most recently finished pass.
func (s *Scheduler) LastPass() (PassResult, bool) {
	p := s.last.Load()
	if p == nil {
		return PassResult{}, false
	}
	return *p, true
}

// Wait blocks until the running pass, if any, has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop refuses further triggers, cancels the running pass and waits for it
// to persist and return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
