package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"图书不存在", ErrCodeBookNotFound, 404},
		{"参数校验", ErrCodeValidation, 422},
		{"数据库错误", ErrCodeDatabaseError, 500},
		{"方法不允许", ErrCodeMethodNotAllowed, 405},
		{"非法错误码", 12, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus())
		})
	}
}

func TestGetAppError(t *testing.T) {
	t.Run("包装后的AppError可以被提取", func(t *testing.T) {
		wrapped := fmt.Errorf("service: %w", ErrBookNotFound)
		assert.Same(t, ErrBookNotFound, GetAppError(wrapped))
	})

	t.Run("普通错误转换为内部错误且保留原始错误", func(t *testing.T) {
		raw := errors.New("connection refused")
		appErr := GetAppError(raw)

		assert.Equal(t, ErrCodeInternal, appErr.Code)
		assert.Equal(t, "Internal server error", appErr.Message)
		assert.ErrorIs(t, appErr, raw)
	})
}

func TestAppError_Error(t *testing.T) {
	err := WrapCode(errors.New("disk full"), ErrCodeDatabaseError, "create book failed")
	assert.Equal(t, "[50001] create book failed: disk full", err.Error())
	assert.Equal(t, "[40402] Book not found", ErrBookNotFound.Error())
}
