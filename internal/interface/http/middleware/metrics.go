package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/booksapi/pkg/metrics"
)

// unmatchedRoute 未匹配路由的path标签,避免任意URL造成标签爆炸
const unmatchedRoute = "unmatched"

// Metrics HTTP指标中间件
// path标签使用路由模板(/books/:id),不使用原始URL
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInProgress.Inc()
		defer m.HTTPRequestsInProgress.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
