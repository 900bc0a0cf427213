package scheduler

import (
	"context"
	"fmt"

	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// LeadProcessor is the part of the lead service the worker runs.
type LeadProcessor interface {
	ProcessLead(ctx context.Context, in service.LeadInput) service.ProcessingResult
	ProcessBatch(ctx context.Context, leadIDs []string) service.BatchResult
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor LeadProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor LeadProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := newWorker(processor, log)
	w.server = server
	return w, nil
}

func newWorker(processor LeadProcessor, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:       mux,
		processor: processor,
		log:       log,
	}

	mux.HandleFunc(TaskProcessLead, w.handleProcessLead)
	mux.HandleFunc(TaskProcessLeadBatch, w.handleProcessLeadBatch)

	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// Failed leads are recorded by the processor, so a processed task never
// returns an error. Only unreadable payloads do.
func (w *Worker) handleProcessLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseProcessLeadPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	res := w.processor.ProcessLead(ctx, service.LeadInput{
		ID:     payload.LeadID,
		Text:   payload.Text,
		Source: payload.Source,
	})
	if !res.Success {
		w.log.WithContext(logger.ContextWithLeadID(ctx, res.LeadID)).Info("queued lead not processed",
			"kind", res.ErrorKind, "attempts", res.Attempts)
	}
	return nil
}

func (w *Worker) handleProcessLeadBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseProcessLeadBatchPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	res := w.processor.ProcessBatch(ctx, payload.LeadIDs)
	w.log.Info("lead batch processed", "total", res.Total, "successful", res.Successful, "failed", res.Failed)
	return nil
}
