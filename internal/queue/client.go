package queue

import (
	"context"
	"errors"
	"time"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/constants"
	"github.com/xmrpay-next/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultConcurrency = 10
	summaryMaxRetry    = 3
)

// Client 队列客户端封装，未启用时入队为空操作
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{queue: DefaultQueue}, nil
	}
	return &Client{
		client: asynq.NewClient(redisOpt(cfg)),
		queue:  DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueMoneroSummaryRefresh 推送钱包状态刷新任务，delay>0 时延迟执行
// 同一币种在延迟窗口内只保留一个待执行任务
func (c *Client) EnqueueMoneroSummaryRefresh(payload MoneroSummaryRefreshPayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewMoneroSummaryRefreshTask(payload)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(summaryMaxRetry)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay), asynq.Unique(delay))
	}
	if _, err := c.client.Enqueue(task, opts...); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return err
	}
	return nil
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	if cfg == nil {
		cfg = &config.QueueConfig{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{DefaultQueue: 1, constants.QueueCritical: 1}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency:     concurrency,
		Queues:          queues,
		ShutdownTimeout: 8 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(logTaskError),
		Logger:          logger.S(),
	}
}

// logTaskError 任务失败只记日志，重试交给 asynq
func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.Warnw("queue_task_failed",
		"type", task.Type(),
		"retry", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
