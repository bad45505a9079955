package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/acceptor"
	"github.com/ricirt/offline-sync/internal/api"
	"github.com/ricirt/offline-sync/internal/config"
	"github.com/ricirt/offline-sync/internal/connectivity"
	"github.com/ricirt/offline-sync/internal/metrics"
	"github.com/ricirt/offline-sync/internal/queue"
	"github.com/ricirt/offline-sync/internal/ratelimiter"
	"github.com/ricirt/offline-sync/internal/service"
	"github.com/ricirt/offline-sync/internal/storage"
	"github.com/ricirt/offline-sync/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to read .env", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- durable storage ----
	ctx := context.Background()
	kv, closeStorage, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()

	// ---- queue and metrics ----
	store := queue.New(kv, cfg.QueueKey, logger)
	loaded := store.Load(ctx)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, store.PendingCount)
	store.OnPersistError(m.PersistErrorHook())

	logger.Info("queue loaded",
		zap.Int("records", loaded),
		zap.Int("pending", store.PendingCount()),
	)

	// ---- sync machinery ----
	acc := acceptor.NewHTTPAcceptor(cfg.AcceptorBaseURL, cfg.AcceptTimeout)
	limiter := ratelimiter.New(cfg.AcceptRateLimit)
	exec := worker.NewExecutor(store, acc, limiter, cfg.AcceptTimeout, cfg.Retention, logger, m.WorkerHooks())

	monitor := connectivity.NewMonitor(cfg.StartOnline, logger)
	sched := worker.NewScheduler(exec, monitor, logger)
	monitor.Subscribe(sched)

	svc := service.NewSyncService(store, sched, monitor, cfg.MaxPending, logger)

	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if cfg.ProbeURL != "" {
		probe := connectivity.NewHTTPProbe(cfg.ProbeURL, cfg.AcceptTimeout)
		go worker.NewConnectivityWorker(probe, monitor, cfg.ConnectivityInterval, logger).Run(workerCtx)
	}
	go worker.NewIntervalWorker(sched, cfg.SyncInterval, logger).Run(workerCtx)

	// Records left pending by the previous run go out as soon as we are online.
	sched.Trigger(worker.ReasonStartup)

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(svc, reg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new mutations.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop probing and periodic triggers.
	cancelWorkers()

	// 3. Interrupt the running pass; it still prunes and persists before returning.
	sched.Stop()

	// 4. Final write so nothing held only in memory is lost.
	if err := store.Persist(shutdownCtx); err != nil {
		logger.Error("final queue persist failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly",
		zap.Int("pending", store.PendingCount()),
	)
}
