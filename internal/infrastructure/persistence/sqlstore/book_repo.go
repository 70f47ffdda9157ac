package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/booksapi/internal/domain/book"
	apperrors "github.com/xiebiao/booksapi/pkg/errors"
)

// likeEscaper 转义LIKE通配符，配合 ESCAPE '!' 使用
// MySQL和SQLite都支持该写法
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// bookRepository 图书仓储实现(GORM)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. "不存在"返回nil/false，数据库错误包装为ErrCodeDatabaseError
type bookRepository struct {
	db *gorm.DB
	tx *TxManager
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db, tx: NewTxManager(db)}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) (*book.Book, error) {
	// 1. 领域实体 → GORM模型(ID由数据库生成)
	model := toBookModel(b)
	model.ID = 0

	// 2. 插入数据库
	if err := DB(ctx, r.db).Create(model).Error; err != nil {
		return nil, dbError(err, "创建图书失败")
	}

	// 3. 返回带自增ID的存储结果
	return toBookEntity(model), nil
}

// FindByID 根据ID查找图书，不存在时返回(nil, nil)
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	model, err := r.first(DB(ctx, r.db), id)
	if err != nil {
		return nil, dbError(err, "查询图书失败")
	}
	if model == nil {
		return nil, nil
	}
	return toBookEntity(model), nil
}

// List 按条件查询图书，按ID升序返回
// 书名、作者为包含匹配，出版年份为精确匹配，条件之间为AND
func (r *bookRepository) List(ctx context.Context, filter book.Filter) ([]*book.Book, error) {
	query := DB(ctx, r.db).Model(&BookModel{})

	if filter.Title != nil {
		query = query.Where("title LIKE ? ESCAPE '!'", containsPattern(*filter.Title))
	}
	if filter.Author != nil {
		query = query.Where("author LIKE ? ESCAPE '!'", containsPattern(*filter.Author))
	}
	if filter.PublishedYear != nil {
		query = query.Where("published_year = ?", *filter.PublishedYear)
	}

	var models []BookModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, dbError(err, "查询图书列表失败")
	}

	// 空结果也返回非nil切片，序列化为[]
	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, nil
}

// Update 部分更新图书
// 在同一事务内读取、合并、写回；图书不存在时返回(nil, nil)且不做任何修改
func (r *bookRepository) Update(ctx context.Context, id uint, patch book.Patch) (*book.Book, error) {
	var updated *book.Book

	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := DB(ctx, r.db)

		// SELECT ... FOR UPDATE(SQLite不支持行锁，方言会忽略该子句)
		current, err := r.first(db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil || current == nil {
			return err
		}

		merged := toBookEntity(current).Apply(patch, time.Now())
		model := toBookModel(merged)

		// Select("*")保证PublishedYear为nil时也写入NULL
		if err := db.Model(model).Select("*").Omit("id", "created_at").Updates(model).Error; err != nil {
			return err
		}

		updated = toBookEntity(model)
		return nil
	})
	if err != nil {
		return nil, dbError(err, "更新图书失败")
	}

	return updated, nil
}

// Delete 删除图书(物理删除)，不存在时返回false
func (r *bookRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := DB(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return false, dbError(result.Error, "删除图书失败")
	}
	return result.RowsAffected > 0, nil
}

// first 按主键查询，不存在时返回(nil, nil)
func (r *bookRepository) first(db *gorm.DB, id uint) (*BookModel, error) {
	var model BookModel
	err := db.First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// dbError 包装数据库错误，已经是AppError的直接返回
func dbError(err error, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, message)
}
