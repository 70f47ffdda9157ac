package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/internal/infrastructure/config"
	"github.com/xiebiao/booksapi/internal/infrastructure/messaging"
	"github.com/xiebiao/booksapi/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/booksapi/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/booksapi/pkg/circuitbreaker"
	"github.com/xiebiao/booksapi/pkg/metrics"
	"github.com/xiebiao/booksapi/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Server *http.Server
}

func newApp(server *http.Server) *App {
	return &App{Server: server}
}

// provideDB 创建数据库连接,cleanup关闭连接池
func provideDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, func(), error) {
	db, err := sqlstore.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := sqlstore.Close(db); err != nil {
			log.Error("关闭数据库连接失败", "error", err)
		}
	}
	return db, cleanup, nil
}

// provideRedis 启用缓存时创建Redis客户端,未启用时返回nil
func provideRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Error("关闭Redis连接失败", "error", err)
		}
	}
	return client, cleanup, nil
}

// provideBookRepository 图书仓储,启用Redis时包装详情缓存
func provideBookRepository(cfg *config.Config, db *gorm.DB, client *goredis.Client, log *slog.Logger) book.Repository {
	repo := sqlstore.NewBookRepository(db)
	if client == nil {
		return repo
	}
	cache := redis.NewBookCache(client, cfg.Cache.DetailTTL, cfg.Cache.KeyPrefix)
	return redis.NewCachedRepository(repo, cache, log)
}

// provideEventPublisher 启用MQ时通过RabbitMQ发布图书事件
func provideEventPublisher(cfg *config.Config, log *slog.Logger) (book.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return book.NopPublisher{}, func() {}, nil
	}
	pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			log.Error("关闭MQ连接失败", "error", err)
		}
	}

	breaker := circuitbreaker.NewCircuitBreaker("book-events", circuitbreaker.Config{
		Timeout: cfg.MQ.BreakerTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.MQ.BreakerFailures
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("熔断器状态变化", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return messaging.NewBookEventPublisher(pub, breaker), cleanup, nil
}

// provideMetrics 未启用指标时返回nil
func provideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New(reg)
}

// provideServer 创建HTTP服务器
func provideServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
