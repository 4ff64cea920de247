package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/quickhire/internal/auth"
	"github.com/geocoder89/quickhire/internal/cache"
	"github.com/geocoder89/quickhire/internal/config"
	"github.com/geocoder89/quickhire/internal/db"
	httpx "github.com/geocoder89/quickhire/internal/http"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/geocoder89/quickhire/internal/queue/redisclient"
	"github.com/geocoder89/quickhire/internal/ratelimit"
	"github.com/geocoder89/quickhire/internal/repo/memory"
	"github.com/geocoder89/quickhire/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "quickhire-api", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, ping, closeStore, err := openStore(ctx, cfg, log, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	limiter, closeLimiter, err := openLimiter(ctx, cfg)
	if err != nil {
		log.Error("rate limiter init failed", "backend", cfg.RateLimitBackend, "err", err)
		os.Exit(1)
	}
	defer closeLimiter()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL, auth.WithIssuer(cfg.JWTIssuer))

	svc := marketplace.New(store, limiter, tokens,
		marketplace.WithLogger(log),
		marketplace.WithMetrics(prom),
		marketplace.WithTimeout(cfg.RequestTimeout),
		marketplace.WithSkillCache(cache.New(cfg.SkillsCacheTTL)),
	)

	if cfg.SeedSkills {
		res, err := svc.SeedSkills(ctx)
		if err != nil {
			log.Error("skill seed failed", "err", err)
			os.Exit(1)
		}
		log.Info("skills seeded", "created", res.Created, "total", len(res.Skills))
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Service:  svc,
		Verifier: tokens,
		Prom:     prom,
		Gatherer: reg,
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "limiter", cfg.RateLimitBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (marketplace.Store, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil, func() {}, nil
	}

	if cfg.RunMigrate {
		if err := db.Migrate(cfg.DBURL); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, nil, err
	}

	store := postgres.NewStore(pool, prom)
	return store, store.Ping, pool.Close, nil
}

func openLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RateLimitBackend != "redis" {
		return ratelimit.NewSlidingWindow(cfg.ApplyRateLimit, cfg.ApplyRateWindow), func() {}, nil
	}

	rc, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}

	return rc.ApplyLimiter(cfg.ApplyRateLimit, cfg.ApplyRateWindow), func() { _ = rc.Close() }, nil
}
