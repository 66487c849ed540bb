package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 可启动、可停止的长驻组件
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行运行一组服务，任一退出即整体停止
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务，收到 opts.Signals 时优雅退出
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务并阻塞，ctx 取消视为正常退出
// 停止按注册的逆序进行，先停入口（HTTP）再停后台任务
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for i, svc := range r.services {
		if svc == nil {
			return fmt.Errorf("service #%d is nil", i)
		}
	}

	g, runCtx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		g.Go(func() error {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(runCtx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			if err != nil {
				return fmt.Errorf("%s: %w", svc.Name(), err)
			}
			// 正常返回的服务同样触发整体退出
			return errServiceExited
		})
	}

	<-runCtx.Done()
	r.stopAll(stopTimeout, log)
	err := g.Wait()
	switch {
	case errors.Is(err, errServiceExited), errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

var errServiceExited = errors.New("service exited")

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}
