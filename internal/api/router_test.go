package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/acceptor"
	"github.com/ricirt/offline-sync/internal/api"
	"github.com/ricirt/offline-sync/internal/connectivity"
	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/metrics"
	"github.com/ricirt/offline-sync/internal/queue"
	"github.com/ricirt/offline-sync/internal/service"
	"github.com/ricirt/offline-sync/internal/storage"
	"github.com/ricirt/offline-sync/internal/worker"
)

type testServer struct {
	h     http.Handler
	acc   *acceptor.MockAcceptor
	sched *worker.Scheduler
}

func newTestServer(t *testing.T, online bool, maxPending int) *testServer {
	t.Helper()
	logger := zap.NewNop()

	store := queue.New(storage.NewMock(), "offline_queue", logger)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, store.PendingCount)
	store.OnPersistError(m.PersistErrorHook())

	acc := acceptor.NewMockAcceptor()
	exec := worker.NewExecutor(store, acc, nil, time.Second, 7*24*time.Hour, logger, m.WorkerHooks())
	monitor := connectivity.NewMonitor(online, logger)
	sched := worker.NewScheduler(exec, monitor, logger)
	monitor.Subscribe(sched)
	t.Cleanup(sched.Stop)

	svc := service.NewSyncService(store, sched, monitor, maxPending, logger)
	return &testServer{h: api.NewRouter(svc, reg, logger), acc: acc, sched: sched}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}

const billBody = `{"action":"create","entity":"bill","payload":{"total":1200}}`

func TestEnqueue_Created(t *testing.T) {
	s := newTestServer(t, false, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/mutations", billBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[domain.MutationRecord](t, rec)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, domain.ActionCreate, got.Action)
	assert.Equal(t, domain.EntityBill, got.Entity)
	assert.JSONEq(t, `{"total":1200}`, string(got.Payload))
	assert.False(t, got.Synced)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestEnqueue_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"action":`, http.StatusBadRequest},
		{"unknown action", `{"action":"upsert","entity":"bill"}`, http.StatusUnprocessableEntity},
		{"unknown entity", `{"action":"create","entity":"invoice"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, false, 0)
			rec := s.do(t, http.MethodPost, "/api/v1/mutations", tc.body)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestEnqueue_QueueFull(t *testing.T) {
	s := newTestServer(t, false, 1)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/mutations", billBody).Code)
	rec := s.do(t, http.MethodPost, "/api/v1/mutations", billBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPendingAndSnapshot(t *testing.T) {
	s := newTestServer(t, false, 0)
	for i := 0; i < 3; i++ {
		s.do(t, http.MethodPost, "/api/v1/mutations", billBody)
	}

	pending := decode[map[string]int](t, s.do(t, http.MethodGet, "/api/v1/mutations/pending", ""))
	assert.Equal(t, 3, pending["pending"])

	list := decode[struct {
		Data  []domain.MutationRecord `json:"data"`
		Total int                     `json:"total"`
	}](t, s.do(t, http.MethodGet, "/api/v1/mutations", ""))
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Data, 3)
}

func TestConnectivityEventDrainsQueue(t *testing.T) {
	s := newTestServer(t, false, 0)
	s.do(t, http.MethodPost, "/api/v1/mutations", billBody)
	s.do(t, http.MethodPost, "/api/v1/mutations", billBody)

	rec := s.do(t, http.MethodPost, "/api/v1/connectivity", `{"reachable":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["changed"])
	s.sched.Wait()

	assert.Len(t, s.acc.Deliveries(), 2)
	status := decode[service.Status](t, s.do(t, http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, 0, status.Pending)
	assert.True(t, status.Online)
	require.NotNil(t, status.LastPass)
	assert.Equal(t, worker.ReasonReachable, status.LastPass.Reason)
}

func TestConnectivity_BadBody(t *testing.T) {
	s := newTestServer(t, true, 0)
	rec := s.do(t, http.MethodPost, "/api/v1/connectivity", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualSync(t *testing.T) {
	s := newTestServer(t, false, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["started"], "offline trigger starts nothing")

	s.do(t, http.MethodPost, "/api/v1/connectivity", `{"reachable":true}`)
	s.sched.Wait()

	rec = s.do(t, http.MethodPost, "/api/v1/sync", "")
	assert.True(t, decode[map[string]bool](t, rec)["started"])
	s.sched.Wait()
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true, 0)

	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	s.do(t, http.MethodPost, "/api/v1/mutations", billBody)
	s.sched.Wait()

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sync_records_accepted_total")
	assert.Contains(t, rec.Body.String(), "sync_pending_records 0")
}

func TestCorrelationIDEchoed(t *testing.T) {
	s := newTestServer(t, true, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "trace-123")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Correlation-ID"))
}
