package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code是业务错误码，前三位即HTTP状态码（40402 → 404）
// 2. Message是用户可见的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus 由业务错误码推导HTTP状态码
// 非法错误码统一按500处理
func (e *AppError) HTTPStatus() int {
	status := e.Code / 100
	if status < 400 || status > 599 {
		return 500
	}
	return status
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapCode 以指定错误码包装系统错误
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：前三位为HTTP状态码，后两位为细分原因
// - 4xxxx: 客户端错误（资源不存在、参数校验失败）
// - 5xxxx: 服务端错误（数据库异常、缓存异常）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	// 资源错误（40400-40499）
	ErrCodeNotFound     = 40400 // 资源不存在(通用，含未注册路由)
	ErrCodeBookNotFound = 40402 // 图书不存在

	// 方法错误（40500-40599）
	ErrCodeMethodNotAllowed = 40500 // 请求方法不允许

	// 参数错误（42200-42299）
	ErrCodeValidation = 42200 // 参数校验失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "Internal server error")
	ErrDatabaseError = New(ErrCodeDatabaseError, "Internal server error")
	ErrRedisError    = New(ErrCodeRedisError, "Internal server error")

	// 资源不存在
	ErrNotFound     = New(ErrCodeNotFound, "Resource not found")
	ErrBookNotFound = New(ErrCodeBookNotFound, "Book not found")

	// 请求方法
	ErrMethodNotAllowed = New(ErrCodeMethodNotAllowed, "Method not allowed")

	// 参数错误
	ErrValidation = New(ErrCodeValidation, "Validation error")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrInternal.Message)
}
