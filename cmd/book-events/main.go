// book-events 订阅图书事件并输出审计日志
//
// 启动前需要配置 mq.enabled=true 和 mq.url;
// 队列 mq.queue 绑定到 mq.exchange,routing key为 book.*
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/internal/infrastructure/config"
	"github.com/xiebiao/booksapi/internal/infrastructure/messaging"
	"github.com/xiebiao/booksapi/pkg/logger"
	"github.com/xiebiao/booksapi/pkg/metrics"
	"github.com/xiebiao/booksapi/pkg/mq"
)

// 指标端口与API服务错开
const metricsAddr = ":9091"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "book-events: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if !cfg.MQ.Enabled {
		return fmt.Errorf("未启用消息队列(mq.enabled=false)")
	}

	log, closeLog, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, cfg.MQ.Queue, messaging.BookRoutingKeys, log)
	if err != nil {
		return fmt.Errorf("创建消费者失败: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("指标服务异常退出", "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("开始消费图书事件", "exchange", cfg.MQ.Exchange, "queue", cfg.MQ.Queue)
	if err := consumer.Consume(ctx, newAuditHandler(log, m)); err != nil && ctx.Err() == nil {
		return fmt.Errorf("消费图书事件失败: %w", err)
	}

	log.Info("消费者已停止")
	return nil
}

// newAuditHandler 把图书事件写入审计日志
// 消息体无法解析时丢弃,不重新入队
func newAuditHandler(log *slog.Logger, m *metrics.Metrics) mq.Handler {
	log = log.With("component", "book_audit")

	return func(ctx context.Context, routingKey string, body []byte) error {
		event, err := messaging.DecodeBookEvent(routingKey, body)
		if err != nil {
			if m != nil {
				m.IncEventConsumed(routingKey, metrics.ResultError)
			}
			return fmt.Errorf("%w: %w", mq.ErrDiscard, err)
		}

		attrs := []any{
			"event", event.Type,
			"book_id", event.BookID,
			"occurred_at", event.OccurredAt,
		}
		if event.Type != book.EventDeleted {
			attrs = append(attrs, "title", event.Title, "author", event.Author)
		}
		log.InfoContext(ctx, "图书事件", attrs...)

		if m != nil {
			m.IncEventConsumed(string(event.Type), metrics.ResultSuccess)
		}
		return nil
	}
}
