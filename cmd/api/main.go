package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiebiao/booksapi/internal/infrastructure/config"
	"github.com/xiebiao/booksapi/pkg/logger"
	"github.com/xiebiao/booksapi/pkg/tracing"
)

// @title        Books API
// @version      1.0
// @description  图书CRUD接口:创建、查询、部分更新、删除
// @host         localhost:8080
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "books-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志,response包等通过slog.Default()输出
	log, closeLog, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(log)

	log.Info("配置加载成功",
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
		"addr", cfg.Server.Addr(),
		"mode", cfg.Server.Mode,
		"redis", cfg.Redis.Enabled,
		"mq", cfg.MQ.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)

	ctx := context.Background()

	// 3. 链路追踪(可选)
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.App.Environment,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("初始化链路追踪失败: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Error("关闭链路追踪失败", "error", err)
			}
		}()
	}

	// 4. 依赖注入
	app, cleanup, err := InitializeApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer cleanup()

	// 5. 启动HTTP服务
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP服务启动", "addr", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 6. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Info("收到退出信号,正在优雅关闭", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP服务关闭失败: %w", err)
	}

	log.Info("服务已停止")
	return nil
}
