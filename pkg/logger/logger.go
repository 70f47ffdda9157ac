// Package logger 基于log/slog构建进程日志
//
// 配置来自config.LogConfig：
//   - level:  debug | info | warn | error
//   - format: console | json
//   - output: stdout | stderr | /path/to/file
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options 日志选项
type Options struct {
	Level        string
	Format       string
	Output       string
	EnableCaller bool
}

// New 创建slog.Logger
// 返回的closer用于关闭文件输出，stdout/stderr时为空操作
func New(opts Options) (*slog.Logger, func() error, error) {
	w, closer, err := openOutput(opts.Output)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.EnableCaller,
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), closer, nil
}

// ParseLevel 解析日志级别，未知值按info处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch output {
	case "", "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return f, f.Close, nil
}
