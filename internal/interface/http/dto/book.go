package dto

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/pkg/response"
)

// 书名、作者最大长度(与books表字段长度一致)
const maxTextLen = 255

// CreateBookRequest HTTP创建图书请求
// validator tag说明:
// - required: 必填且不能为空字符串
// - max: 最大长度
type CreateBookRequest struct {
	Title         string `json:"title" binding:"required,max=255" example:"The Great Gatsby"`
	Author        string `json:"author" binding:"required,max=255" example:"F. Scott Fitzgerald"`
	PublishedYear *int   `json:"published_year" example:"1925"` // 可选,不做范围校验
}

// ToCreate 转换为领域输入
func (r CreateBookRequest) ToCreate() book.Create {
	return book.Create{
		Title:         r.Title,
		Author:        r.Author,
		PublishedYear: r.PublishedYear,
	}
}

// UpdateBookRequest HTTP更新图书请求
// 所有字段可选:缺省的字段保持原值,出现的字段覆盖原值
// - title/author 不允许为null或空字符串
// - published_year 为null表示清空
type UpdateBookRequest struct {
	Title         nullable.Nullable[string] `json:"title" swaggertype:"string" example:"The Great Gatsby"`
	Author        nullable.Nullable[string] `json:"author" swaggertype:"string" example:"F. Scott Fitzgerald"`
	PublishedYear nullable.Nullable[int]    `json:"published_year" swaggertype:"integer" example:"1925"`
}

// Validate 校验出现的字段
// validator无法区分"缺省"和"null",这里手工校验
func (r UpdateBookRequest) Validate() []response.FieldError {
	var errs []response.FieldError
	errs = appendTextErrors(errs, "title", r.Title)
	errs = appendTextErrors(errs, "author", r.Author)
	return errs
}

func appendTextErrors(errs []response.FieldError, field string, v nullable.Nullable[string]) []response.FieldError {
	switch {
	case !v.IsSpecified():
		return errs
	case v.IsNull():
		return append(errs, response.FieldError{Field: field, Message: field + " may not be null", Type: "required"})
	}

	val := v.MustGet()
	switch {
	case val == "":
		return append(errs, response.FieldError{Field: field, Message: field + " may not be empty", Type: "required"})
	case len([]rune(val)) > maxTextLen:
		return append(errs, response.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, maxTextLen),
			Type:    "max",
		})
	}
	return errs
}

// ToPatch 转换为领域输入
func (r UpdateBookRequest) ToPatch() book.Patch {
	return book.Patch{
		Title:         r.Title,
		Author:        r.Author,
		PublishedYear: r.PublishedYear,
	}
}

// ListBooksQuery HTTP图书列表查询参数
// 参数缺省表示不过滤;title/author为包含匹配,published_year为精确匹配
type ListBooksQuery struct {
	Title         *string `form:"title" example:"Gatsby"`
	Author        *string `form:"author" example:"Fitzgerald"`
	PublishedYear *int    `form:"published_year" example:"1925"`
}

// ToFilter 转换为领域过滤条件
func (q ListBooksQuery) ToFilter() book.Filter {
	return book.Filter{
		Title:         q.Title,
		Author:        q.Author,
		PublishedYear: q.PublishedYear,
	}
}

// BookResponse HTTP图书响应
// published_year未知时输出null
type BookResponse struct {
	ID            uint      `json:"id" example:"1"`
	Title         string    `json:"title" example:"The Great Gatsby"`
	Author        string    `json:"author" example:"F. Scott Fitzgerald"`
	PublishedYear *int      `json:"published_year" example:"1925"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// ToBookResponse 领域实体 → HTTP响应
func ToBookResponse(b *book.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// ToBookResponses 批量转换,空列表输出[]而不是null
func ToBookResponses(books []*book.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, ToBookResponse(b))
	}
	return out
}
