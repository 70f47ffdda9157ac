package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/booksapi/pkg/errors"
	"github.com/xiebiao/booksapi/pkg/response"
)

// Recovery panic恢复中间件
// 捕获handler中的panic,记录堆栈后返回统一的500响应,进程不退出
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", GetRequestID(c),
			"stack", string(debug.Stack()),
		)

		response.Abort(c, apperrors.Wrap(fmt.Errorf("panic: %v", recovered), "内部错误"))
	})
}
