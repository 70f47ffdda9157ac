package redis

import (
	"context"
	"log/slog"

	"github.com/xiebiao/booksapi/internal/domain/book"
)

// cachedRepository 带详情缓存的图书仓储(装饰器)
// 缓存故障只记录日志，读写都回落到底层仓储
type cachedRepository struct {
	next  book.Repository
	cache *BookCache
	log   *slog.Logger
}

// NewCachedRepository 为仓储包装详情缓存
func NewCachedRepository(next book.Repository, cache *BookCache, log *slog.Logger) book.Repository {
	return &cachedRepository{next: next, cache: cache, log: log.With("component", "book_cache")}
}

func (r *cachedRepository) Create(ctx context.Context, b *book.Book) (*book.Book, error) {
	return r.next.Create(ctx, b)
}

// FindByID 先查缓存，未命中再查库并回填
// 查库前记下版本号，期间有更新或删除时不回填
func (r *cachedRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	cached, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.WarnContext(ctx, "读取缓存失败", "book_id", id, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	version, verr := r.cache.Version(ctx, id)

	b, err := r.next.FindByID(ctx, id)
	if err != nil || b == nil {
		return b, err
	}

	if verr != nil {
		r.log.WarnContext(ctx, "读取缓存版本失败,跳过回填", "book_id", id, "error", verr)
		return b, nil
	}
	filled, err := r.cache.SetIfVersion(ctx, b, version)
	switch {
	case err != nil:
		r.log.WarnContext(ctx, "回填缓存失败", "book_id", id, "error", err)
	case !filled:
		r.log.DebugContext(ctx, "缓存已失效,跳过回填", "book_id", id)
	}
	return b, nil
}

func (r *cachedRepository) List(ctx context.Context, filter book.Filter) ([]*book.Book, error) {
	return r.next.List(ctx, filter)
}

// Update 更新成功后删除缓存
func (r *cachedRepository) Update(ctx context.Context, id uint, patch book.Patch) (*book.Book, error) {
	b, err := r.next.Update(ctx, id, patch)
	if err != nil || b == nil {
		return b, err
	}
	r.invalidate(ctx, id)
	return b, nil
}

// Delete 删除成功后删除缓存
func (r *cachedRepository) Delete(ctx context.Context, id uint) (bool, error) {
	ok, err := r.next.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	r.invalidate(ctx, id)
	return true, nil
}

func (r *cachedRepository) invalidate(ctx context.Context, id uint) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.WarnContext(ctx, "删除缓存失败", "book_id", id, "error", err)
	}
}
