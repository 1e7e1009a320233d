package main

import (
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/thingpark-broker/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
	"github.com/taoyao-code/thingpark-broker/internal/logging"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default: $BROKER_CONFIG or configs/example.yaml)")
	pflag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging, zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
