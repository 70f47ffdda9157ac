package book

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booksapi/internal/domain/book"
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
	"github.com/xiebiao/booksapi/pkg/metrics"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, b *book.Book) (*book.Book, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Book), args.Error(1)
}

func (m *mockRepo) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Book), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, f book.Filter) ([]*book.Book, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*book.Book), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, id uint, p book.Patch) (*book.Book, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Book), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e book.Event) error {
	return m.Called(ctx, e).Error(0)
}

type fixture struct {
	repo    *mockRepo
	events  *mockPublisher
	metrics *metrics.Metrics
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(mockRepo),
		events:  new(mockPublisher),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewService(f.repo, f.events, f.metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *fixture) opCount(t *testing.T, op, result string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, f.metrics.BookOperationsTotal.WithLabelValues(op, result).Write(&m))
	return m.Counter.GetValue()
}

func stored(id uint) *book.Book {
	year := 1925
	now := time.Now()
	return &book.Book{ID: id, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", PublishedYear: &year, CreatedAt: now, UpdatedAt: now}
}

func eventOf(t book.EventType, id uint) any {
	return mock.MatchedBy(func(e book.Event) bool { return e.Type == t && e.BookID == id })
}

func TestService_CreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("创建成功并发布事件", func(t *testing.T) {
		f := newFixture()
		year := 1925
		in := book.Create{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", PublishedYear: &year}

		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(b *book.Book) bool {
			return b.ID == 0 && b.Title == in.Title && *b.PublishedYear == 1925
		})).Return(stored(1), nil)
		f.events.On("Publish", mock.Anything, eventOf(book.EventCreated, 1)).Return(nil)

		got, err := f.svc.CreateBook(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, uint(1), got.ID)

		f.repo.AssertExpectations(t)
		f.events.AssertExpectations(t)
		assert.Equal(t, float64(1), f.opCount(t, opCreate, metrics.ResultSuccess))
	})

	t.Run("事件发布失败不影响结果", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(stored(2), nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("mq down"))

		got, err := f.svc.CreateBook(ctx, book.Create{Title: "T", Author: "A"})
		require.NoError(t, err)
		assert.Equal(t, uint(2), got.ID)
	})

	t.Run("仓储错误原样返回", func(t *testing.T) {
		f := newFixture()
		dbErr := apperrors.WrapCode(errors.New("disk full"), apperrors.ErrCodeDatabaseError, "创建图书失败")
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, dbErr)

		got, err := f.svc.CreateBook(ctx, book.Create{Title: "T", Author: "A"})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, dbErr)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.Equal(t, float64(1), f.opCount(t, opCreate, metrics.ResultError))
	})
}

func TestService_GetBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("FindByID", mock.Anything, uint(1)).Return(stored(1), nil)
	f.repo.On("FindByID", mock.Anything, uint(999)).Return(nil, nil)

	got, err := f.svc.GetBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", got.Title)

	got, err = f.svc.GetBook(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, float64(1), f.opCount(t, opGet, metrics.ResultSuccess))
	assert.Equal(t, float64(1), f.opCount(t, opGet, metrics.ResultNotFound))
}

func TestService_ListBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	title := "Gatsby"
	filter := book.Filter{Title: &title}
	f.repo.On("List", mock.Anything, filter).Return([]*book.Book{stored(1)}, nil)
	f.repo.On("List", mock.Anything, book.Filter{}).Return([]*book.Book{}, nil)

	books, err := f.svc.ListBooks(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	books, err = f.svc.ListBooks(ctx, book.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestService_UpdateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("更新成功发布事件", func(t *testing.T) {
		f := newFixture()
		patch := book.Patch{Title: nullable.NewNullableWithValue("Updated")}
		updated := stored(3)
		updated.Title = "Updated"
		f.repo.On("Update", mock.Anything, uint(3), patch).Return(updated, nil)
		f.events.On("Publish", mock.Anything, eventOf(book.EventUpdated, 3)).Return(nil)

		got, err := f.svc.UpdateBook(ctx, 3, patch)
		require.NoError(t, err)
		assert.Equal(t, "Updated", got.Title)
		f.events.AssertExpectations(t)
	})

	t.Run("空Patch仍交给仓储", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Update", mock.Anything, uint(3), book.Patch{}).Return(stored(3), nil)
		f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		got, err := f.svc.UpdateBook(ctx, 3, book.Patch{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		f.repo.AssertExpectations(t)
	})

	t.Run("不存在返回nil且不发布事件", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Update", mock.Anything, uint(999), mock.Anything).Return(nil, nil)

		got, err := f.svc.UpdateBook(ctx, 999, book.Patch{Title: nullable.NewNullableWithValue("X")})
		require.NoError(t, err)
		assert.Nil(t, got)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.Equal(t, float64(1), f.opCount(t, opUpdate, metrics.ResultNotFound))
	})
}

func TestService_DeleteBook(t *testing.T) {
	ctx := context.Background()

	t.Run("删除成功发布事件", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Delete", mock.Anything, uint(4)).Return(true, nil)
		f.events.On("Publish", mock.Anything, eventOf(book.EventDeleted, 4)).Return(nil)

		ok, err := f.svc.DeleteBook(ctx, 4)
		require.NoError(t, err)
		assert.True(t, ok)
		f.events.AssertExpectations(t)
	})

	t.Run("不存在返回false", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Delete", mock.Anything, uint(999)).Return(false, nil)

		ok, err := f.svc.DeleteBook(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestNewService_Defaults(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Delete", mock.Anything, uint(1)).Return(true, nil)

	// 没有事件发布者和指标时也能正常工作
	svc := NewService(repo, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ok, err := svc.DeleteBook(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
