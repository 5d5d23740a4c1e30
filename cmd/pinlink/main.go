package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/taoyao-code/pinlink/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/logging"
)

func main() {
	// 1) 加载配置：PINLINK_CONFIG 或 configs/example.yaml，环境变量覆盖
	cfg, err := cfgpkg.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动并阻塞到退出信号
	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Error("pinlink exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
