package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如索书号重复),转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	// 1. 领域实体 → GORM模型
	model := toBookModel(b)

	// 2. 插入数据库
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrCotaDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 3. 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err, book.ErrBookNotFound, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByCota 根据索书号查找图书
func (r *bookRepository) FindByCota(ctx context.Context, cota string) (*book.Book, error) {
	var model BookModel
	err := conn(ctx, r.db).Where("cota = ?", book.NormalizeCota(cota)).First(&model).Error
	if err != nil {
		return nil, notFoundOr(err, book.ErrBookNotFound, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByIDs 批量查询图书
func (r *bookRepository) FindByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return []*book.Book{}, nil
	}
	var models []BookModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询图书失败")
	}
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// Update 更新图书信息
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	// 使用Save更新所有字段(包括is_active=false)
	if err := conn(ctx, r.db).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrCotaDuplicate
		}
		return apperrors.Wrap(err, "更新图书失败")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var models []BookModel
	var total int64

	// 构建查询
	query := conn(ctx, r.db).Model(&BookModel{})

	// 关键词搜索(书名、作者、索书号)
	if params.Keyword != "" {
		keyword := likePattern(params.Keyword)
		query = query.Where("title LIKE ? OR author LIKE ? OR cota LIKE ?", keyword, keyword, keyword)
	}
	if params.ClassificationID != 0 {
		query = query.Where("classification_id = ?", params.ClassificationID)
	}
	if params.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	// 查询总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书总数失败")
	}

	// 排序
	switch params.SortBy {
	case "title_asc":
		query = query.Order("title ASC")
	case "created_at_desc":
		query = query.Order("created_at DESC")
	default:
		query = query.Order("cota ASC")
	}

	// 分页
	query = paginate(query, params.Page, params.PageSize)

	if err := query.Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}

// LockByID 悲观锁查询图书(借出时使用)
// 必须在TxManager.Transaction内调用,否则锁在语句结束后立即释放
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		return nil, notFoundOr(err, book.ErrBookNotFound, "锁定图书失败")
	}
	return toBookEntity(&model), nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:                b.ID,
		Cota:              b.Cota,
		Title:             b.Title,
		Subtitle:          b.Subtitle,
		Author:            b.Author,
		CoAuthor:          b.CoAuthor,
		Publisher:         b.Publisher,
		PublicationYear:   b.PublicationYear,
		Edition:           b.Edition,
		Copies:            b.Copies,
		IsActive:          b.IsActive,
		ClassificationID:  b.ClassificationID,
		DictionaryEntryID: b.DictionaryEntryID,
		CreatedBy:         b.CreatedBy,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:                model.ID,
		Cota:              model.Cota,
		Title:             model.Title,
		Subtitle:          model.Subtitle,
		Author:            model.Author,
		CoAuthor:          model.CoAuthor,
		Publisher:         model.Publisher,
		PublicationYear:   model.PublicationYear,
		Edition:           model.Edition,
		Copies:            model.Copies,
		IsActive:          model.IsActive,
		ClassificationID:  model.ClassificationID,
		DictionaryEntryID: model.DictionaryEntryID,
		CreatedBy:         model.CreatedBy,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// notFoundOr 记录不存在时返回notFound,其他错误包装为数据库错误
func notFoundOr(err, notFound error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(err, msg)
}
