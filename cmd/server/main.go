package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/loyalcup/backend/internal/app"
	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiBrown = "\033[33m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.Auth.JWTSecret) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("auth.jwt_secret 未配置或过弱，请填写认证平台的 JWT 签名密钥")
		}
		stdLog.Printf("警告: auth.jwt_secret 未配置或过弱，受保护接口将拒绝所有请求")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrown + ansiBold + "  ( (" + ansiReset)
	fmt.Println(ansiBrown + ansiBold + "   ) )" + ansiReset)
	fmt.Println(ansiBrown + ansiBold + " ........" + ansiReset)
	fmt.Println(ansiBrown + ansiBold + " |      |]   LoyalCup API" + ansiReset)
	fmt.Println(ansiBrown + ansiBold + " \\      /" + ansiReset)
	fmt.Println(ansiBrown + ansiBold + "  `----'" + ansiReset)
	fmt.Println(ansiCyan + "orders · loyalty · rewards" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "your-jwt-secret") ||
		strings.Contains(normalized, "super-secret")
}
