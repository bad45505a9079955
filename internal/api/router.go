package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/api/handler"
	apimw "github.com/ricirt/offline-sync/internal/api/middleware"
	"github.com/ricirt/offline-sync/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route.
func NewRouter(
	svc *service.SyncService,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestSize(1 << 20)) // mutation payloads are small JSON documents
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger))

	mh := handler.NewMutationHandler(svc, logger)
	sh := handler.NewSyncHandler(svc, logger)
	hh := handler.NewHealthHandler(time.Now())

	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/mutations", mh.Enqueue)
		r.Get("/mutations", mh.List)
		r.Get("/mutations/pending", mh.Pending)

		r.Post("/sync", sh.Trigger)
		r.Post("/connectivity", sh.Connectivity)
		r.Get("/status", sh.Status)
	})

	return r
}
