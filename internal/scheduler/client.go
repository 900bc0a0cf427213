package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"nordflytt_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Processing a lead can take the full retry budget of the offer call.
const leadTaskTimeout = 5 * time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

// LeadEnqueuer hands leads to the worker.
type LeadEnqueuer interface {
	EnqueueLead(ctx context.Context, payload ProcessLeadPayload) (string, error)
	EnqueueLeadBatch(ctx context.Context, payload ProcessLeadBatchPayload) (string, error)
}

var _ LeadEnqueuer = (*Client)(nil)

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(asynq.NewClient(opt), cfg.GetAsynqQueueName()), nil
}

func newClient(c *asynq.Client, queue string) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{client: c, queue: queue}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueLead queues one lead text and returns the task ID.
func (c *Client) EnqueueLead(ctx context.Context, payload ProcessLeadPayload) (string, error) {
	task, err := NewProcessLeadTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// EnqueueLeadBatch queues a bulk submission and returns the task ID.
func (c *Client) EnqueueLeadBatch(ctx context.Context, payload ProcessLeadBatchPayload) (string, error) {
	task, err := NewProcessLeadBatchTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// Retries happen inside the processor, so asynq gets MaxRetry(0).
func (c *Client) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not configured")
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(leadTaskTimeout),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// NewRedisClient opens a go-redis client on the server asynq uses.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
