package sqlstore

import (
	"time"

	"github.com/xiebiao/booksapi/internal/domain/book"
)

// BookModel GORM图书模型
// 设计说明:
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/book/entity.go是领域实体，不依赖GORM
// 3. PublishedYear可为NULL，表示出版年份未知
// 4. 删除为物理删除，不使用gorm.DeletedAt
type BookModel struct {
	ID            uint      `gorm:"primaryKey"`
	Title         string    `gorm:"index;size:255;not null;comment:书名"`
	Author        string    `gorm:"index;size:255;not null;comment:作者"`
	PublishedYear *int      `gorm:"index;comment:出版年份"`
	CreatedAt     time.Time `gorm:"comment:创建时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:            m.ID,
		Title:         m.Title,
		Author:        m.Author,
		PublishedYear: m.PublishedYear,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
