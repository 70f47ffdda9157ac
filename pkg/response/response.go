package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/booksapi/pkg/errors"
)

// Envelope 统一响应结构
// 设计说明：
// 1. Success标记请求是否成功，客户端无需解析HTTP状态码
// 2. Message是用户友好的提示信息
// 3. Data是业务数据，失败时为null
// 4. Error是结构化错误信息，成功时为null
type Envelope[T any] struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *T           `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code    int          `json:"code" example:"40402"`
	Message string       `json:"message" example:"Book not found"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field" example:"title"`
	Message string `json:"message" example:"title is required"`
	Type    string `json:"type" example:"required"`
}

// Success 成功响应（200）
func Success[T any](c *gin.Context, message string, data T) {
	c.JSON(http.StatusOK, Envelope[T]{
		Success: true,
		Message: message,
		Data:    &data,
	})
}

// Created 创建成功响应（201）
func Created[T any](c *gin.Context, message string, data T) {
	c.JSON(http.StatusCreated, Envelope[T]{
		Success: true,
		Message: message,
		Data:    &data,
	})
}

// SuccessNoData 成功但无数据（如删除），data输出null
func SuccessNoData(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope[any]{
		Success: true,
		Message: message,
	})
}

// Error 错误响应（自动处理AppError）
// 用法：
//
//	book, err := bookService.CreateBook(...)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)

	// 内部错误只写日志，响应体只给出通用提示
	if appErr.Err != nil {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Err,
			"request_id", c.GetString("request_id"),
		)
	}

	status := appErr.HTTPStatus()
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = apperrors.ErrInternal.Message
	}

	c.JSON(status, Envelope[any]{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			Code:    appErr.Code,
			Message: message,
		},
	})
}

// ValidationFailed 参数校验失败（422）
func ValidationFailed(c *gin.Context, details []FieldError) {
	c.JSON(http.StatusUnprocessableEntity, Envelope[any]{
		Success: false,
		Message: apperrors.ErrValidation.Message,
		Error: &ErrorDetail{
			Code:    apperrors.ErrCodeValidation,
			Message: apperrors.ErrValidation.Message,
			Details: details,
		},
	})
}

// Abort 写入错误响应并终止后续中间件
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
