package book

import (
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
)

// 图书领域错误定义
// 仓储和服务层以nil结果表达"不存在",由HTTP层转换为ErrBookNotFound
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.ErrBookNotFound
)
