//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	appbook "github.com/xiebiao/booksapi/internal/application/book"
	"github.com/xiebiao/booksapi/internal/infrastructure/config"
	"github.com/xiebiao/booksapi/internal/interface/http/handler"
	"github.com/xiebiao/booksapi/internal/interface/http/router"
	"github.com/xiebiao/booksapi/pkg/metrics"
)

// infrastructureSet 基础设施:数据库、Redis、MQ、指标
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideBookRepository,
	provideEventPublisher,
	metrics.NewRegistry,
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
	provideMetrics,
)

// applicationSet 应用层
var applicationSet = wire.NewSet(
	appbook.NewService,
)

// interfaceSet HTTP接口层
var interfaceSet = wire.NewSet(
	handler.NewBookHandler,
	handler.NewHealthHandler,
	router.New,
	provideServer,
)

// InitializeApp 组装整个应用
// cleanup按创建的逆序释放资源(MQ、Redis、数据库)
func InitializeApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
