// Package connectivity tracks whether the remote acceptor is reachable and
// reports transitions to interested listeners.
package connectivity

import (
	"sync"

	"go.uber.org/zap"
)

// Listener receives reachability transitions. Calls are made synchronously
// from Set, so implementations must not block.
type Listener interface {
	Reachable()
	Unreachable()
}

// Monitor holds the current reachability state. Only transitions are
// forwarded: setting the state it already has is a no-op.
type Monitor struct {
	mu        sync.RWMutex
	online    bool
	listeners []Listener
	logger    *zap.Logger
}

func NewMonitor(startOnline bool, logger *zap.Logger) *Monitor {
	return &Monitor{online: startOnline, logger: logger}
}

// Subscribe registers l for future transitions.
func (m *Monitor) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Online reports the last known reachability.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set records the new state and reports whether it was a transition.
func (m *Monitor) Set(reachable bool) bool {
	m.mu.Lock()
	if m.online == reachable {
		m.mu.Unlock()
		return false
	}
	m.online = reachable
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if reachable {
		m.logger.Info("connectivity restored")
	} else {
		m.logger.Info("connectivity lost")
	}

	for _, l := range listeners {
		if reachable {
			l.Reachable()
		} else {
			l.Unreachable()
		}
	}
	return true
}
