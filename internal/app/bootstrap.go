package app

import (
	"errors"
	"time"

	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/provider"
	"github.com/xmrpay-next/internal/router"
	"github.com/xmrpay-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, nil, err
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 钱包状态定时刷新：worker 进程负责；api 进程在无共享缓存时自行刷新
	if mode != ModeAPI || !cfg.Redis.Enabled {
		refreshService, err := worker.NewSummaryRefreshService(
			container.MoneroProvider,
			time.Duration(cfg.Monero.SummaryRefreshSeconds)*time.Second,
		)
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		services = append(services, refreshService)
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				container.Close()
				return nil, nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_queue_disabled_skip_worker", "mode", mode)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
