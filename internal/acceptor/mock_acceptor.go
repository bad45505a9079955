package acceptor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ricirt/offline-sync/internal/domain"
)

// MockAcceptor is an in-memory, de-duplicating Acceptor used in tests.
// It records every delivery but applies each record ID at most once, which
// is the idempotency contract the sync executor relies on.
type MockAcceptor struct {
	mu         sync.Mutex
	fail       map[string]bool
	applied    map[string]domain.MutationRecord
	deliveries []string
	inFlight   int
	maxFlight  int

	// Gate, when non-nil, blocks every Accept until a value is received
	// or ctx is done; tests use it to hold a pass "in flight".
	Gate chan struct{}
	// Started, when non-nil, receives the record ID as each call begins.
	Started chan string
}

func NewMockAcceptor() *MockAcceptor {
	return &MockAcceptor{
		fail:    make(map[string]bool),
		applied: make(map[string]domain.MutationRecord),
	}
}

// FailID makes every delivery of id fail until AcceptID is called.
func (m *MockAcceptor) FailID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[id] = true
}

func (m *MockAcceptor) AcceptID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fail, id)
}

func (m *MockAcceptor) Accept(ctx context.Context, rec domain.MutationRecord) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Started != nil {
		m.Started <- rec.ID
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, rec.ID)
	if m.fail[rec.ID] {
		return fmt.Errorf("%w: %s", domain.ErrRejected, rec.ID)
	}
	if _, done := m.applied[rec.ID]; !done {
		m.applied[rec.ID] = rec.Clone()
	}
	return nil
}

// Deliveries returns every record ID that reached Accept past the gate, in order.
func (m *MockAcceptor) Deliveries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deliveries...)
}

// DeliveryCount counts how many times id was delivered.
func (m *MockAcceptor) DeliveryCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.deliveries {
		if d == id {
			n++
		}
	}
	return n
}

// Applied returns the number of distinct records applied.
func (m *MockAcceptor) Applied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

// MaxInFlight is the highest number of concurrent Accept calls observed.
func (m *MockAcceptor) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxFlight
}

var _ Acceptor = (*MockAcceptor)(nil)
