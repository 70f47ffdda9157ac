package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
// 3. "不存在"不是错误:FindByID/Update返回nil,Delete返回false
type Repository interface {
	// Create 创建图书,返回带自增ID的存储结果
	Create(ctx context.Context, book *Book) (*Book, error)

	// FindByID 根据ID查找图书,不存在时返回(nil, nil)
	FindByID(ctx context.Context, id uint) (*Book, error)

	// List 按条件查询图书,条件为空时返回全部
	List(ctx context.Context, filter Filter) ([]*Book, error)

	// Update 部分更新,不存在时返回(nil, nil)且无副作用
	Update(ctx context.Context, id uint, patch Patch) (*Book, error)

	// Delete 删除图书,不存在时返回false且无副作用
	Delete(ctx context.Context, id uint) (bool, error)
}
