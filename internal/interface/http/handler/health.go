package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xiebiao/booksapi/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/booksapi/pkg/response"
)

// 单个依赖检查的超时时间
const checkTimeout = 2 * time.Second

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status     string            `json:"status" example:"healthy"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthHandler 健康检查处理器
// /ping 只表示进程存活;/readyz 检查数据库(以及启用时的Redis)
type HealthHandler struct {
	db    *gorm.DB
	redis *goredis.Client // 未启用缓存时为nil
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db *gorm.DB, redis *goredis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Ping 存活检查
// @Summary      存活检查
// @Tags         健康检查
// @Produce      json
// @Success      200 {object} response.Envelope[handler.HealthStatus]
// @Router       /ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	response.Success(c, "pong", HealthStatus{Status: "healthy"})
}

// Ready 就绪检查
// @Summary      就绪检查
// @Tags         健康检查
// @Produce      json
// @Success      200 {object} response.Envelope[handler.HealthStatus]
// @Failure      503 {object} response.Envelope[handler.HealthStatus]
// @Router       /readyz [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	status := HealthStatus{Status: "healthy", Components: map[string]string{}}

	status.Components["database"] = "healthy"
	if err := sqlstore.Ping(ctx, h.db); err != nil {
		status.Components["database"] = "unhealthy"
		status.Status = "unhealthy"
	}

	if h.redis != nil {
		status.Components["redis"] = "healthy"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Components["redis"] = "unhealthy"
			status.Status = "unhealthy"
		}
	}

	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, response.Envelope[HealthStatus]{
			Success: false,
			Message: "Service unavailable",
			Data:    &status,
		})
		return
	}
	response.Success(c, "ready", status)
}
