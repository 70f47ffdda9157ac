package book

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/booksapi/internal/domain/book"
	"github.com/xiebiao/booksapi/pkg/metrics"
	"github.com/xiebiao/booksapi/pkg/tracing"
)

const tracerName = "application/book"

// 操作名(指标标签)
const (
	opCreate = "create"
	opGet    = "get"
	opList   = "list"
	opUpdate = "update"
	opDelete = "delete"
)

// Service 图书应用服务
// 设计说明:
// 1. 应用层负责用例编排:调用仓储、发布事件、记录指标和Span
// 2. 不做输入校验(在HTTP层完成),不感知HTTP状态码
// 3. "不存在"以nil/false返回,由handler转换为404
// 4. 事件发布失败只记录日志,不影响主流程
type Service struct {
	repo    book.Repository
	events  book.EventPublisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewService 创建图书应用服务
// events为nil时不发布事件,m为nil时不记录指标
func NewService(repo book.Repository, events book.EventPublisher, m *metrics.Metrics, log *slog.Logger) *Service {
	if events == nil {
		events = book.NopPublisher{}
	}
	return &Service{
		repo:    repo,
		events:  events,
		metrics: m,
		log:     log.With("component", "book_service"),
	}
}

// CreateBook 创建图书
func (s *Service) CreateBook(ctx context.Context, in book.Create) (b *book.Book, err error) {
	ctx, span, done := s.begin(ctx, opCreate, "BookService.CreateBook")
	defer func() { done(b != nil, err) }()

	b, err = s.repo.Create(ctx, book.NewBook(in))
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("book.id", int64(b.ID)))
	s.publish(ctx, book.NewEvent(book.EventCreated, b))
	return b, nil
}

// GetBook 根据ID获取图书,不存在时返回(nil, nil)
func (s *Service) GetBook(ctx context.Context, id uint) (b *book.Book, err error) {
	ctx, span, done := s.begin(ctx, opGet, "BookService.GetBook")
	defer func() { done(b != nil, err) }()

	span.SetAttributes(attribute.Int64("book.id", int64(id)))
	return s.repo.FindByID(ctx, id)
}

// ListBooks 按条件查询图书,条件为空时返回全部
func (s *Service) ListBooks(ctx context.Context, filter book.Filter) (books []*book.Book, err error) {
	ctx, span, done := s.begin(ctx, opList, "BookService.ListBooks")
	defer func() { done(true, err) }()

	books, err = s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("filter.empty", filter.IsEmpty()),
		attribute.Int("result.count", len(books)),
	)
	return books, nil
}

// UpdateBook 部分更新图书,不存在时返回(nil, nil)
// 空Patch同样交给仓储处理(只刷新updated_at并返回当前记录)
func (s *Service) UpdateBook(ctx context.Context, id uint, patch book.Patch) (b *book.Book, err error) {
	ctx, span, done := s.begin(ctx, opUpdate, "BookService.UpdateBook")
	defer func() { done(b != nil, err) }()

	span.SetAttributes(attribute.Int64("book.id", int64(id)))

	b, err = s.repo.Update(ctx, id, patch)
	if err != nil || b == nil {
		return nil, err
	}

	s.publish(ctx, book.NewEvent(book.EventUpdated, b))
	return b, nil
}

// DeleteBook 删除图书,不存在时返回false
func (s *Service) DeleteBook(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span, done := s.begin(ctx, opDelete, "BookService.DeleteBook")
	defer func() { done(deleted, err) }()

	span.SetAttributes(attribute.Int64("book.id", int64(id)))

	deleted, err = s.repo.Delete(ctx, id)
	if err != nil || !deleted {
		return false, err
	}

	s.publish(ctx, book.NewEvent(book.EventDeleted, &book.Book{ID: id}))
	return true, nil
}

// begin 开始一次操作:创建Span并返回结束回调
// 结束回调记录结果指标、Span状态并结束Span
func (s *Service) begin(ctx context.Context, op, spanName string) (context.Context, trace.Span, func(found bool, err error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, spanName)

	return ctx, span, func(found bool, err error) {
		result := metrics.ResultSuccess
		switch {
		case err != nil:
			result = metrics.ResultError
			tracing.RecordError(span, err)
		case !found:
			result = metrics.ResultNotFound
		}

		if s.metrics != nil {
			s.metrics.ObserveBookOperation(op, result, time.Since(start))
		}
		span.SetAttributes(attribute.String("result", result))
		span.End()
	}
}

// publish 发布图书事件,失败只记录日志
func (s *Service) publish(ctx context.Context, event book.Event) {
	if _, nop := s.events.(book.NopPublisher); nop {
		return
	}

	err := s.events.Publish(ctx, event)

	if s.metrics != nil {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		s.metrics.IncEventPublished(string(event.Type), result)
	}

	if err != nil {
		s.log.WarnContext(ctx, "发布图书事件失败",
			"event", event.Type,
			"book_id", event.BookID,
			"error", err,
		)
	}
}
