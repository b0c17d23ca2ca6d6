package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

var errServiceExited = errors.New("service exited")

// Service 可启停的后台服务（HTTP、队列消费）
type Service interface {
	Name() string
	// Start 阻塞运行，直到服务停止或 ctx 取消
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 管理一组服务的生命周期：任一服务退出即整体停机
type Runner struct {
	services []Service
	onStop   func()
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并在收到系统信号时优雅停机
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务并等待退出
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	for _, svc := range r.services {
		if svc == nil {
			return errors.New("service is nil")
		}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		group.Go(func() error {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(groupCtx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			if err == nil && groupCtx.Err() == nil {
				return errServiceExited
			}
			return err
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		r.stopAll(stopTimeout, log)
		return nil
	})

	err := group.Wait()
	if r.onStop != nil {
		r.onStop()
	}
	if errors.Is(err, errServiceExited) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}
