/*
 * @Description: 访客互动状态服务入口
 * @Date: 2025-06-28 00:21:55
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/anzhiyu-c/anheyu-social/cmd/server"
	"github.com/anzhiyu-c/anheyu-social/internal/infra/logger"
	"github.com/anzhiyu-c/anheyu-social/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-social/pkg/config"
)

// @title           Anheyu Social API
// @version         1.0
// @description     点赞、评论点赞与收件箱已读状态接口
// @BasePath        /api
func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", config.DefaultFilePath, "配置文件路径")
	flag.BoolVar(&showVersion, "version", false, "打印版本信息并退出")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetVersionString())
		return
	}

	bootLogger := logger.NewBootstrap()
	defer func() { _ = bootLogger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := server.NewApp(ctx, configPath, bootLogger)
	if err != nil {
		bootLogger.Error("应用初始化失败", zap.Error(err))
		cancel()
		_ = bootLogger.Sync()
		os.Exit(1)
	}
	defer app.Stop()

	if err := app.Run(ctx); err != nil {
		bootLogger.Error("应用运行失败", zap.Error(err))
	}
}
