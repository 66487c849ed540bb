package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/xmrpay-next/internal/app"
	"github.com/xmrpay-next/internal/config"
	"github.com/xmrpay-next/internal/logger"
	"github.com/xmrpay-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

var errWeakSecret = errors.New("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printBanner()
	if err := run(*mode); err != nil {
		logger.StdLogger().Fatalf("服务运行失败: %v", err)
	}
}

func run(mode string) error {
	mode, err := app.ParseMode(mode)
	if err != nil {
		return err
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	release := cfg.Server.Mode == "release"

	if isWeakSecret(cfg.JWT.SecretKey) {
		if release {
			return errWeakSecret
		}
		logger.Warnw("jwt_secret_weak", "hint", "建议在生产环境中更换")
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := models.InitDB(cfg.Database); err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}

	return app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
}

func printBanner() {
	fmt.Println(ansiCyan + ansiBold + "xmrpay admin" + ansiReset + ansiDim + "  monero-like payment methods  (all | api | worker)" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
