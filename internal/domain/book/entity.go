package book

import (
	"time"

	"github.com/oapi-codegen/nullable"
)

// Book 图书实体
// 设计说明:
// 1. ID由存储层生成,创建后不可变
// 2. Title/Author必填且非空
// 3. PublishedYear为nil表示"未知",不等同于0
type Book struct {
	ID            uint
	Title         string
	Author        string
	PublishedYear *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Create 创建图书的输入
// 只作为输入使用,持久化时由它派生出带新ID的Book
type Create struct {
	Title         string
	Author        string
	PublishedYear *int
}

// Patch 部分更新的输入
// 字段缺省(IsSpecified=false)表示保持原值,出现则覆盖原值(PublishedYear允许显式null清空)
type Patch struct {
	Title         nullable.Nullable[string]
	Author        nullable.Nullable[string]
	PublishedYear nullable.Nullable[int]
}

// IsEmpty 是否没有任何字段需要更新
func (p Patch) IsEmpty() bool {
	return !p.Title.IsSpecified() && !p.Author.IsSpecified() && !p.PublishedYear.IsSpecified()
}

// Filter 列表查询条件
// 多个条件之间为AND关系,nil表示不限制
type Filter struct {
	Title         *string // 书名包含
	Author        *string // 作者包含
	PublishedYear *int    // 出版年份等于
}

// IsEmpty 是否没有任何过滤条件
func (f Filter) IsEmpty() bool {
	return f.Title == nil && f.Author == nil && f.PublishedYear == nil
}

// NewBook 由创建输入构造新图书(工厂方法)
func NewBook(in Create) *Book {
	now := time.Now()
	return &Book{
		Title:         in.Title,
		Author:        in.Author,
		PublishedYear: copyInt(in.PublishedYear),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Apply 合并部分更新,返回新的Book,原对象不变
// 只有出现在Patch中的字段会被覆盖;Title/Author的null在上游已被拒绝,这里按"保持原值"处理
func (b Book) Apply(p Patch, now time.Time) *Book {
	merged := b
	merged.PublishedYear = copyInt(b.PublishedYear)

	if v, err := p.Title.Get(); err == nil {
		merged.Title = v
	}
	if v, err := p.Author.Get(); err == nil {
		merged.Author = v
	}
	if p.PublishedYear.IsSpecified() {
		merged.PublishedYear = nil
		if v, err := p.PublishedYear.Get(); err == nil {
			merged.PublishedYear = &v
		}
	}

	merged.UpdatedAt = now
	return &merged
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
