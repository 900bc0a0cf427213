package main

import (
	"context"
	"os"
	"strings"
	"time"

	"nordflytt_backend/internal/events"
	"nordflytt_backend/internal/leads"
	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/db"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/validator"
)

const (
	chunkSize        = 50
	maxLeads         = 1000
	delayBetweenRuns = 2 * time.Second
)

// batchProcessor is the part of the processor this command uses.
type batchProcessor interface {
	ProcessBatch(ctx context.Context, leadIDs []string) service.BatchResult
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	lookback := getDurationEnv("REPROCESS_LOOKBACK", 72*time.Hour)
	log.Info("starting failed lead reprocess", "lookback", lookback.String())

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	leadsModule := leads.NewModule(pool, nil, eventBus, nil, nil, validator.New(), cfg, log)

	ids, err := leadsModule.Repository().FailedLeadIDs(ctx, time.Now().Add(-lookback), maxLeads)
	if err != nil {
		log.Error("failed to list failed leads", "error", err)
		panic("failed to list failed leads: " + err.Error())
	}
	if len(ids) == 0 {
		log.Info("no failed leads to reprocess")
		return
	}

	total := reprocess(ctx, leadsModule.Processor(), ids, log, delayBetweenRuns)
	log.Info("failed lead reprocess completed",
		"total", total.Total, "successful", total.Successful, "failed", total.Failed)
}

// reprocess sends ids through the bulk endpoint in chunks and sums the results.
func reprocess(ctx context.Context, p batchProcessor, ids []string, log *logger.Logger, delay time.Duration) service.BatchResult {
	var total service.BatchResult
	for start := 0; start < len(ids); start += chunkSize {
		end := min(start+chunkSize, len(ids))

		res := p.ProcessBatch(ctx, ids[start:end])
		total.Total += res.Total
		total.Successful += res.Successful
		total.Failed += res.Failed
		log.Info("reprocess chunk done", "from", start, "to", end, "successful", res.Successful, "failed", res.Failed)

		if end < len(ids) && delay > 0 {
			time.Sleep(delay)
		}
	}
	return total
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
