package app

import (
	"os"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// Options 应用启动选项
type Options struct {
	Config *config.Config
	Logger *zap.SugaredLogger
	// Signals 触发优雅停机的系统信号，为空时仅在服务异常退出时停机
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	// Mode all 同时运行接口与队列消费；api、worker 用于拆分部署
	Mode string
}

func isKnownMode(mode string) bool {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	}
	return false
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
