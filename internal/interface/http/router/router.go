// Package router 组装Gin引擎:中间件、业务路由和运维端点
package router

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/booksapi/docs" // swagger文档
	"github.com/xiebiao/booksapi/internal/infrastructure/config"
	"github.com/xiebiao/booksapi/internal/interface/http/handler"
	"github.com/xiebiao/booksapi/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
	"github.com/xiebiao/booksapi/pkg/metrics"
	"github.com/xiebiao/booksapi/pkg/response"
)

// 超过该耗时的请求输出慢请求警告
const slowRequestThreshold = time.Second

// New 创建Gin引擎并注册全部路由
//
// 中间件顺序(外→内):RequestID → Tracing → Logger → Metrics → Recovery
// Recovery在最内层,panic被转换成500后外层中间件仍能记录到状态码
func New(
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	books *handler.BookHandler,
	health *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.RedirectTrailingSlash = false

	r.Use(
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(log, slowRequestThreshold),
	)
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.ErrNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, apperrors.ErrMethodNotAllowed)
	})

	// 运维端点
	r.GET("/ping", health.Ping)
	r.GET("/readyz", health.Ready)
	if cfg.Metrics.Enabled && gatherer != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler(gatherer)))
	}
	if gin.Mode() != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 图书路由:/books 和 /books/ 由同一组handler处理
	g := r.Group("/books")
	{
		for _, root := range []string{"", "/"} {
			g.POST(root, books.CreateBook)
			g.GET(root, books.ListBooks)
		}
		g.GET("/:id", books.GetBook)
		g.PUT("/:id", books.UpdateBook)
		g.DELETE("/:id", books.DeleteBook)
	}

	return r
}
