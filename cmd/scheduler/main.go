package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nordflytt_backend/internal/email"
	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/inbox"
	"nordflytt_backend/internal/leads"
	"nordflytt_backend/internal/notification"
	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/internal/scheduler"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/db"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/retry"
	"nordflytt_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if !cfg.IsSchedulerEnabled() {
		panic("scheduler requires REDIS_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connectDB(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	notificationModule := notification.New(email.NewSender(cfg), cfg.GetOpsEmail(), log)
	notificationModule.RegisterHandlers(eventBus)

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	table, err := engine.LoadTable(cfg.GetPricingTablePath())
	if err != nil {
		log.Error("failed to load pricing table", "error", err)
		panic("failed to load pricing table: " + err.Error())
	}

	// Worker-side lead processing wiring (no HTTP handlers required).
	leadsModule := leads.NewModule(pool, rdb, eventBus, engine.New(table), queue, validator.New(), cfg, log)
	processor := leadsModule.Processor()

	worker, err := scheduler.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	sweepInterval := getDurationEnv("FAILED_LEAD_SWEEP_INTERVAL", 15*time.Minute)
	sweepLookback := getDurationEnv("FAILED_LEAD_SWEEP_LOOKBACK", 24*time.Hour)
	sweeper := scheduler.NewFailedLeadSweeper(leadsModule.Repository(), queue, log, sweepInterval, sweepLookback)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	if cfg.IsInboxEnabled() {
		poller := inbox.NewPoller(inbox.NewIMAPMailbox(cfg), log)
		dispatcher := scheduler.NewInboxDispatcher(poller, queue, eventBus, processor.CanAutoProcess, log, cfg.GetInboxPollInterval())
		g.Go(func() error {
			dispatcher.Run(gctx)
			return nil
		})
		log.Info("inbox polling enabled", "host", cfg.GetIMAPHost(), "folder", cfg.GetIMAPFolder())
	} else {
		log.Info("IMAP not configured; inbox polling disabled")
	}

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	log.Info("scheduler stopped")
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

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
