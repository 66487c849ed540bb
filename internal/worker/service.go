package worker

import (
	"context"
	"errors"
	"time"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSummaryRefreshInterval = 30 * time.Second

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动消费并阻塞到 ctx 结束，信号处理交给 Runner
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 停止拉取新任务并等待进行中的任务结束
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// SummaryRefreshAll 刷新全部币种的钱包状态快照
type SummaryRefreshAll interface {
	RefreshAll(ctx context.Context)
}

// SummaryRefreshService 定时刷新钱包状态快照
type SummaryRefreshService struct {
	name      string
	refresher SummaryRefreshAll
	interval  time.Duration
}

// NewSummaryRefreshService 创建定时刷新服务
func NewSummaryRefreshService(refresher SummaryRefreshAll, interval time.Duration) (*SummaryRefreshService, error) {
	if refresher == nil {
		return nil, errors.New("summary refresher is nil")
	}
	if interval <= 0 {
		interval = defaultSummaryRefreshInterval
	}
	return &SummaryRefreshService{
		name:      "monero_summary_refresh",
		refresher: refresher,
		interval:  interval,
	}, nil
}

// Name 服务名称
func (s *SummaryRefreshService) Name() string {
	if s == nil || s.name == "" {
		return "monero_summary_refresh"
	}
	return s.name
}

// Start 立即刷新一次，之后按周期刷新直到 ctx 结束
func (s *SummaryRefreshService) Start(ctx context.Context) error {
	if s == nil || s.refresher == nil {
		return errors.New("summary refresh service not initialized")
	}
	runOnce := func() {
		started := time.Now()
		s.refresher.RefreshAll(ctx)
		logger.Debugw("worker_monero_summary_refresh_all_done", "elapsed_ms", time.Since(started).Milliseconds())
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 停止服务，循环随 ctx 取消退出
func (s *SummaryRefreshService) Stop(ctx context.Context) error {
	return nil
}
