package scheduler

import (
	"context"
	"time"

	"nordflytt_backend/platform/logger"
)

const (
	defaultSweepInterval = 15 * time.Minute
	defaultSweepLookback = 24 * time.Hour
	sweepBatchLimit      = 100
)

// FailedLeadFinder lists leads whose latest attempt failed transiently.
type FailedLeadFinder interface {
	FailedLeadIDs(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// FailedLeadSweeper periodically resubmits leads that failed on a
// transient error through the bulk endpoint.
type FailedLeadSweeper struct {
	repo     FailedLeadFinder
	enqueuer LeadEnqueuer
	log      *logger.Logger
	interval time.Duration
	lookback time.Duration
	now      func() time.Time
}

func NewFailedLeadSweeper(repo FailedLeadFinder, enqueuer LeadEnqueuer, log *logger.Logger, interval, lookback time.Duration) *FailedLeadSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if lookback <= 0 {
		lookback = defaultSweepLookback
	}

	return &FailedLeadSweeper{
		repo:     repo,
		enqueuer: enqueuer,
		log:      log,
		interval: interval,
		lookback: lookback,
		now:      time.Now,
	}
}

func (s *FailedLeadSweeper) Run(ctx context.Context) {
	if s == nil || s.repo == nil || s.enqueuer == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep returns how many leads were queued.
func (s *FailedLeadSweeper) sweep(ctx context.Context) int {
	ids, err := s.repo.FailedLeadIDs(ctx, s.now().Add(-s.lookback), sweepBatchLimit)
	if err != nil {
		s.log.Warn("failed lead sweep query failed", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	taskID, err := s.enqueuer.EnqueueLeadBatch(ctx, ProcessLeadBatchPayload{LeadIDs: ids})
	if err != nil {
		s.log.Warn("failed lead sweep enqueue failed", "error", err, "leads", len(ids))
		return 0
	}

	s.log.Info("failed leads resubmitted", "leads", len(ids), "task", taskID)
	return len(ids)
}
