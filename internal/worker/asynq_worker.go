package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/monero"
	"github.com/xmrpay-next/internal/provider"
	"github.com/xmrpay-next/internal/queue"

	"github.com/hibiken/asynq"
)

// SummaryRefresher 刷新单个币种的钱包状态快照
type SummaryRefresher interface {
	RefreshSummary(ctx context.Context, cryptoCode string) (*monero.Summary, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	refresher SummaryRefresher
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{}
	if c != nil && c.MoneroProvider != nil {
		consumer.refresher = c.MoneroProvider
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskMoneroSummaryRefresh, c.handleMoneroSummaryRefresh)
}

func (c *Consumer) handleMoneroSummaryRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_monero_summary_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseMoneroSummaryRefreshPayload(task.Payload())
	if err != nil {
		// 载荷非法时重试无意义
		logger.Warnw("worker_monero_summary_refresh_invalid_payload", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if c.refresher == nil {
		logger.Warnw("worker_monero_summary_refresh_skip_provider_nil", "crypto_code", payload.CryptoCode)
		return nil
	}
	summary, err := c.refresher.RefreshSummary(ctx, payload.CryptoCode)
	if err != nil {
		if errors.Is(err, monero.ErrUnknownCryptoCode) {
			logger.Debugw("worker_monero_summary_refresh_skip_unknown_code", "crypto_code", payload.CryptoCode)
			return nil
		}
		logger.Warnw("worker_monero_summary_refresh_failed", "crypto_code", payload.CryptoCode, "error", err)
		return err
	}
	logger.Debugw("worker_monero_summary_refreshed",
		"crypto_code", summary.CryptoCode,
		"wallet_available", summary.WalletAvailable,
		"daemon_available", summary.DaemonAvailable,
	)
	return nil
}
