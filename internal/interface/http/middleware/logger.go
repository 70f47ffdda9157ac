package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/booksapi/pkg/tracing"
)

// Logger 访问日志中间件
// 记录方法、路径、状态码、耗时、客户端IP和请求ID
// 5xx按Error输出,4xx按Warn输出,超过slowThreshold的请求额外输出慢请求警告
// 不记录请求体
func Logger(log *slog.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	log = log.With("component", "http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
			"request_id", GetRequestID(c),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			attrs = append(attrs, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "request", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "request", attrs...)
		default:
			log.InfoContext(ctx, "request", attrs...)
		}

		if slowThreshold > 0 && latency > slowThreshold {
			log.WarnContext(ctx, "slow request",
				"method", c.Request.Method,
				"path", path,
				"latency", latency,
				"request_id", GetRequestID(c),
			)
		}
	}
}
