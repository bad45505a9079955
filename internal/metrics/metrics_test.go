package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/metrics"
	"github.com/ricirt/offline-sync/internal/worker"
)

func TestMetrics_WorkerHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	pending := 3
	m := metrics.New(reg, func() int { return pending })
	hooks := m.WorkerHooks()

	hooks.OnAccepted(domain.EntityBill, 20*time.Millisecond)
	hooks.OnAccepted(domain.EntityBill, 30*time.Millisecond)
	hooks.OnFailed(domain.EntityCustomer, domain.OutcomeTimeout)
	hooks.OnPass(worker.PassResult{Reason: worker.ReasonReachable, Pruned: 4, Duration: time.Second})
	hooks.OnDropped(worker.ReasonEnqueue)
	m.PersistErrorHook()()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsAccepted.WithLabelValues("bill")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsFailed.WithLabelValues("customer", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes.WithLabelValues("reachable")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsPruned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TriggersDropped.WithLabelValues("enqueue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
}

func TestMetrics_PendingGaugeReadsAtScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	pending := 0
	metrics.New(reg, func() int { return pending })

	pending = 42
	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "sync_pending_records" {
			found = true
			assert.Equal(t, 42.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "sync_pending_records not registered")
}
