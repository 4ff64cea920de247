package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/quickhire/internal/config"
	"github.com/geocoder89/quickhire/internal/db"
	"github.com/geocoder89/quickhire/internal/notifications"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/geocoder89/quickhire/internal/queue/worker"
	"github.com/geocoder89/quickhire/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env).With("component", "worker")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	tasksRepo := postgres.NewTasksRepo(pool, prom)
	notesRepo := postgres.NewNotificationsRepo(pool, prom)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)

	w := worker.New(worker.Config{
		WorkerID:      cfg.WorkerID,
		PollInterval:  cfg.WorkerPollInterval,
		Concurrency:   cfg.WorkerConcurrency,
		StaleLockTTL:  cfg.WorkerStaleLock,
		ShutdownGrace: 10 * time.Second,
	}, tasksRepo, notesRepo, notifier,
		worker.WithLogger(log),
		worker.WithProm(prom),
	)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(pool, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", cfg.WorkerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
