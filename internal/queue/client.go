package queue

import (
	"context"
	"fmt"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

type Client struct {
	client  *asynq.Client
	enabled bool
	queue   string
}

// NewClient returns a disabled client unless the queue is enabled.
func NewClient(qcfg config.QueueConfig, rcfg config.CacheConfig) (*Client, error) {
	if !qcfg.Enabled {
		return &Client{queue: DefaultQueue}, nil
	}
	opt, err := RedisOpt(rcfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt), enabled: true, queue: DefaultQueue}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueDriveFile queues a Drive ingestion. It reports false when the queue
// is disabled.
func (c *Client) EnqueueDriveFile(ctx context.Context, fileID string, kind domain.ImportKind) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	task, err := NewDriveFileTask(DriveFilePayload{FileID: fileID, Kind: kind})
	if err != nil {
		return false, err
	}
	return c.enqueue(ctx, task)
}

// EnqueueObject queues the import of one object-storage key.
func (c *Client) EnqueueObject(ctx context.Context, key string, kind domain.ImportKind) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	task, err := NewObjectTask(ObjectPayload{Key: key, Kind: kind})
	if err != nil {
		return false, err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (bool, error) {
	options := append([]asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(3)}, opts...)
	info, err := c.client.EnqueueContext(ctx, task, options...)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	log.Info().Str("task", task.Type()).Str("id", info.ID).Msg("task enqueued")
	return true, nil
}

// BuildServerConfig returns the redis and server settings for a worker.
func BuildServerConfig(qcfg config.QueueConfig, rcfg config.CacheConfig) (asynq.RedisClientOpt, asynq.Config, error) {
	opt, err := RedisOpt(rcfg)
	if err != nil {
		return asynq.RedisClientOpt{}, asynq.Config{}, err
	}
	concurrency := 4
	if qcfg.Concurrency > 0 {
		concurrency = qcfg.Concurrency
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	}, nil
}

// RedisOpt reuses the cache's redis settings.
func RedisOpt(rcfg config.CacheConfig) (asynq.RedisClientOpt, error) {
	ro, err := cache.RedisOptions(rcfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      ro.Addr,
		Username:  ro.Username,
		Password:  ro.Password,
		DB:        ro.DB,
		TLSConfig: ro.TLSConfig,
	}, nil
}
