package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/booksapi/internal/application/book"
	"github.com/xiebiao/booksapi/internal/interface/http/dto"
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
	"github.com/xiebiao/booksapi/pkg/response"
)

// 成功提示
const (
	msgBookCreated   = "Book created successfully"
	msgBookRetrieved = "Book retrieved successfully"
	msgBooksListed   = "Books retrieved successfully"
	msgBookUpdated   = "Book updated successfully"
	msgBookDeleted   = "Book deleted successfully"
)

// BookHandler 图书HTTP处理器
// 设计说明:
// 1. 负责参数绑定与校验,校验失败直接返回422,不会进入应用层
// 2. 应用层返回nil/false表示不存在,由这里转换为404
// 3. 其它错误交给response.Error,内部错误信息只写日志
type BookHandler struct {
	svc *appbook.Service
}

// NewBookHandler 创建图书处理器
func NewBookHandler(svc *appbook.Service) *BookHandler {
	return &BookHandler{svc: svc}
}

// CreateBook 创建图书
// @Summary      创建图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      201 {object} response.Envelope[dto.BookResponse]
// @Failure      422 {object} response.Envelope[any] "参数错误"
// @Failure      500 {object} response.Envelope[any] "内部错误"
// @Router       /books/ [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "body")
		return
	}

	b, err := h.svc.CreateBook(c.Request.Context(), req.ToCreate())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, msgBookCreated, dto.ToBookResponse(b))
}

// ListBooks 查询图书列表
// @Summary      查询图书列表
// @Description  条件之间为AND关系;title/author为包含匹配,published_year为精确匹配
// @Tags         图书
// @Produce      json
// @Param        title           query string false "书名包含"
// @Param        author          query string false "作者包含"
// @Param        published_year  query int    false "出版年份"
// @Success      200 {object} response.Envelope[[]dto.BookResponse]
// @Failure      422 {object} response.Envelope[any] "参数错误"
// @Router       /books/ [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	if details := dto.EmptyIntParams(c.Request.URL.Query(), "published_year"); details != nil {
		response.ValidationFailed(c, details)
		return
	}

	var q dto.ListBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err, "published_year")
		return
	}

	books, err := h.svc.ListBooks(c.Request.Context(), q.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, msgBooksListed, dto.ToBookResponses(books))
}

// GetBook 获取图书详情
// @Summary      获取图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Envelope[dto.BookResponse]
// @Failure      404 {object} response.Envelope[any] "图书不存在"
// @Failure      422 {object} response.Envelope[any] "ID不合法"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if id < 0 {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	b, err := h.svc.GetBook(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	if b == nil {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	response.Success(c, msgBookRetrieved, dto.ToBookResponse(b))
}

// UpdateBook 部分更新图书
// @Summary      更新图书
// @Description  只更新请求中出现的字段;published_year传null表示清空
// @Tags         图书
// @Accept       json
// @Produce      json
// @Param        id      path int                   true "图书ID"
// @Param        request body dto.UpdateBookRequest true "需要更新的字段"
// @Success      200 {object} response.Envelope[dto.BookResponse]
// @Failure      404 {object} response.Envelope[any] "图书不存在"
// @Failure      422 {object} response.Envelope[any] "参数错误"
// @Router       /books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}

	// 先校验请求体,再检查图书是否存在
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "body")
		return
	}
	if details := req.Validate(); len(details) > 0 {
		response.ValidationFailed(c, details)
		return
	}
	if id < 0 {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	b, err := h.svc.UpdateBook(c.Request.Context(), uint(id), req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	if b == nil {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	response.Success(c, msgBookUpdated, dto.ToBookResponse(b))
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Envelope[any] "data为null"
// @Failure      404 {object} response.Envelope[any] "图书不存在"
// @Failure      422 {object} response.Envelope[any] "ID不合法"
// @Router       /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if id < 0 {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	deleted, err := h.svc.DeleteBook(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, apperrors.ErrBookNotFound)
		return
	}

	response.SuccessNoData(c, msgBookDeleted)
}

// bookID 解析路径参数id,失败时已写入422响应
// 负数是合法的整数ID,只是不会对应任何图书;超出int64范围按格式错误处理
func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		bindFailed(c, err, "id")
		return 0, false
	}
	return id, true
}

// bindFailed 绑定失败:能识别的错误返回422,其它按内部错误处理
func bindFailed(c *gin.Context, err error, field string) {
	if details := dto.BindErrors(err, field); details != nil {
		response.ValidationFailed(c, details)
		return
	}
	response.Error(c, apperrors.Wrap(err, "请求解析失败"))
}
