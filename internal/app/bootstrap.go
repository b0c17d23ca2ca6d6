package app

import (
	"errors"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/provider"
	"github.com/loyalcup/backend/internal/router"
	"github.com/loyalcup/backend/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !isKnownMode(mode) {
		return nil, errors.New("unknown mode: " + mode)
	}

	container := provider.NewContainer(cfg)
	services, err := buildServices(cfg, container, mode)
	if err != nil {
		container.Close()
		return nil, err
	}

	runner := NewRunner(services...)
	runner.onStop = container.Close
	return runner, nil
}

func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service

	// HTTP 接口
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	// 异步任务消费
	if mode == ModeAll || mode == ModeWorker {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeWorker:
			return nil, err
		default:
			logger.Warnw("app_worker_skipped", "error", err)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return services, nil
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
