package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/worker"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	RecordsAccepted *prometheus.CounterVec
	RecordsFailed   *prometheus.CounterVec
	AcceptLatency   *prometheus.HistogramVec
	Passes          *prometheus.CounterVec
	PassDuration    prometheus.Histogram
	RecordsPruned   prometheus.Counter
	PersistFailures prometheus.Counter
	TriggersDropped *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer.
// pendingCount backs the sync_pending_records gauge and is evaluated at
// scrape time.
func New(reg prometheus.Registerer, pendingCount func() int) *Metrics {
	m := &Metrics{
		RecordsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_accepted_total",
			Help: "Mutation records confirmed by the remote acceptor.",
		}, []string{"entity"}),

		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_failed_total",
			Help: "Delivery attempts that left a record pending, by outcome (rejected, timeout).",
		}, []string{"entity", "outcome"}),

		AcceptLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sync_accept_seconds",
			Help:    "Latency of successful acceptor calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity"}),

		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_passes_total",
			Help: "Completed sync passes by trigger reason.",
		}, []string{"reason"}),

		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sync_pass_seconds",
			Help:    "Wall time of a whole sync pass.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),

		RecordsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_records_pruned_total",
			Help: "Synced records removed after the retention window.",
		}),

		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_persist_failures_total",
			Help: "Failed writes of the durable queue log.",
		}),

		TriggersDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_triggers_dropped_total",
			Help: "Triggers coalesced because a pass was already running.",
		}, []string{"reason"}),
	}

	pending := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sync_pending_records",
		Help: "Mutation records not yet confirmed by the acceptor.",
	}, func() float64 { return float64(pendingCount()) })

	reg.MustRegister(
		m.RecordsAccepted,
		m.RecordsFailed,
		m.AcceptLatency,
		m.Passes,
		m.PassDuration,
		m.RecordsPruned,
		m.PersistFailures,
		m.TriggersDropped,
		pending,
	)

	return m
}

// WorkerHooks returns the callbacks expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker package
// stays instrumentation-agnostic.
func (m *Metrics) WorkerHooks() worker.MetricHooks {
	return worker.MetricHooks{
		OnAccepted: func(e domain.Entity, latency time.Duration) {
			m.RecordsAccepted.WithLabelValues(string(e)).Inc()
			m.AcceptLatency.WithLabelValues(string(e)).Observe(latency.Seconds())
		},
		OnFailed: func(e domain.Entity, o domain.Outcome) {
			m.RecordsFailed.WithLabelValues(string(e), string(o)).Inc()
		},
		OnPass: func(r worker.PassResult) {
			m.Passes.WithLabelValues(string(r.Reason)).Inc()
			m.PassDuration.Observe(r.Duration.Seconds())
			m.RecordsPruned.Add(float64(r.Pruned))
		},
		OnDropped: func(r worker.Reason) {
			m.TriggersDropped.WithLabelValues(string(r)).Inc()
		},
	}
}

// PersistErrorHook is wired into queue.Store.OnPersistError.
func (m *Metrics) PersistErrorHook() func() {
	return m.PersistFailures.Inc
}
