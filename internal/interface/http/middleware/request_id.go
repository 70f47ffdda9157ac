package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID 请求ID响应头
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID gin.Context中保存请求ID的key
	ContextKeyRequestID = "request_id"
)

// RequestID 请求ID中间件
// 上游(网关)已经带了X-Request-ID时沿用,否则生成新的UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// GetRequestID 从Context获取请求ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
