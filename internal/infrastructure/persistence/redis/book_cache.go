package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/booksapi/internal/domain/book"
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
)

// BookCache 图书详情缓存
//
// 1. Cache-Aside（旁路缓存）：先查缓存，未命中再查数据库并回填
// 2. 更新、删除图书后删除缓存并递增版本号，不更新缓存
// 3. 回填时版本号必须与查库前一致，否则放弃回填，避免把旧数据写回
// 4. 列表结果依赖过滤条件组合，不做缓存
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewBookCache 创建图书详情缓存
func NewBookCache(client *redis.Client, ttl time.Duration, prefix string) *BookCache {
	if prefix == "" {
		prefix = "books"
	}
	return &BookCache{client: client, ttl: ttl, prefix: prefix}
}

// cachedBook 缓存中的图书快照(JSON)
type cachedBook struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear *int      `json:"published_year"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// 版本号只需比一次查库存活得久
const versionTTL = 24 * time.Hour

func marshalBook(b *book.Book) ([]byte, error) {
	val, err := json.Marshal(cachedBook{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化失败: %w", err)
	}
	return val, nil
}

// Get 获取图书详情缓存，未命中返回(nil, nil)
func (c *BookCache) Get(ctx context.Context, id uint) (*book.Book, error) {
	val, err := c.client.Get(ctx, c.detailKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "获取缓存失败")
	}

	var cb cachedBook
	if err := json.Unmarshal(val, &cb); err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "反序列化缓存失败")
	}

	return &book.Book{
		ID:            cb.ID,
		Title:         cb.Title,
		Author:        cb.Author,
		PublishedYear: cb.PublishedYear,
		CreatedAt:     cb.CreatedAt,
		UpdatedAt:     cb.UpdatedAt,
	}, nil
}

// Set 无条件写入图书详情缓存
func (c *BookCache) Set(ctx context.Context, b *book.Book) error {
	val, err := marshalBook(b)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, c.detailKey(b.ID), val, c.ttl).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "设置缓存失败")
	}
	return nil
}

// Delete 删除图书详情缓存并递增版本号
func (c *BookCache) Delete(ctx context.Context, id uint) error {
	vkey := c.versionKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.detailKey(id))
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, versionTTL)
		return nil
	})
	if err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "删除缓存失败")
	}
	return nil
}

// Version 读取图书的缓存版本号，从未失效过时为0
func (c *BookCache) Version(ctx context.Context, id uint) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "读取缓存版本失败")
	}
	return v, nil
}

// SetIfVersion 版本号仍为version时写入缓存
// 期间发生过失效（版本号变化或WATCH冲突）返回false
func (c *BookCache) SetIfVersion(ctx context.Context, b *book.Book, version int64) (bool, error) {
	val, err := marshalBook(b)
	if err != nil {
		return false, err
	}

	vkey := c.versionKey(b.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errVersionChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.detailKey(b.ID), val, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errVersionChanged), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "设置缓存失败")
	}
}

var errVersionChanged = errors.New("cache version changed")

// detailKey 格式：{prefix}:detail:{book_id}
func (c *BookCache) detailKey(id uint) string {
	return fmt.Sprintf("%s:detail:%d", c.prefix, id)
}

// versionKey 格式：{prefix}:version:{book_id}
func (c *BookCache) versionKey(id uint) string {
	return fmt.Sprintf("%s:version:%d", c.prefix, id)
}
