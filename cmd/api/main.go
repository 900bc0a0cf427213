package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nordflytt_backend/internal/email"
	"nordflytt_backend/internal/events"
	apphttp "nordflytt_backend/internal/http"
	"nordflytt_backend/internal/http/router"
	"nordflytt_backend/internal/leads"
	"nordflytt_backend/internal/notification"
	"nordflytt_backend/internal/pricing"
	"nordflytt_backend/internal/scheduler"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/db"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/retry"
	"nordflytt_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := connectDB(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(ctx, pool, log); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	rdb, queue, closeRedis := initRedis(cfg, log)
	defer closeRedis()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), cfg.GetOpsEmail(), log)
	notificationModule.RegisterHandlers(eventBus)

	pricingModule, err := pricing.NewModule(cfg, val)
	if err != nil {
		log.Error("failed to initialize pricing module", "error", err)
		panic("failed to initialize pricing module: " + err.Error())
	}

	var enqueuer scheduler.LeadEnqueuer
	if queue != nil {
		enqueuer = queue
	}
	var cache redis.Cmdable
	if rdb != nil {
		cache = rdb
	}
	leadsModule := leads.NewModule(pool, cache, eventBus, pricingModule.Engine(), enqueuer, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pricingModule,
			leadsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis returns nils when Redis is not configured; duplicate detection
// and async processing are then disabled.
func initRedis(cfg config.SchedulerConfig, log *logger.Logger) (*redis.Client, *scheduler.Client, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; duplicate detection and async processing disabled")
		return nil, nil, func() {}
	}

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return nil, nil, func() {}
	}

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return rdb, nil, func() { _ = rdb.Close() }
	}

	return rdb, queue, func() {
		_ = queue.Close()
		_ = rdb.Close()
	}
}

// connectDB retries while the database container is still starting.
func connectDB(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		Multiplier:     2,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("database connection failed, retrying", "attempt", attempt, "backoff", delay.String(), "error", err)
		},
	}
	pool, _, err := retry.DoVal(ctx, policy, func(ctx context.Context, _ int) (*pgxpool.Pool, error) {
		return db.NewPool(ctx, cfg)
	})
	return pool, err
}
