package book

import (
	"context"
	"errors"
	"strings"

	"github.com/xiebiao/library/internal/domain/dictionary"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 封装编目规则:索书号规范化、唯一性、词表关联
// 2. 不依赖具体的Repository实现(依赖倒置)
type Service interface {
	// PublishBook 编目上架
	// 业务规则:
	// - 书名、作者不能为空
	// - 副本数>=0
	// - 索书号前两段必须匹配词表中的某个词条
	// - 索书号不能重复
	PublishBook(ctx context.Context, params PublishParams) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// GetBooksByIDs 批量获取图书,结果按ids顺序返回,不存在的跳过
	GetBooksByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// ListBooks 分页查询图书列表
	ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// SetActive 启用/停用图书
	SetActive(ctx context.Context, id uint, active bool) (*Book, error)
}

// PublishParams 编目参数
type PublishParams struct {
	CotaParts       []string // 索书号4段,见ValidateCotaParts
	Title           string
	Subtitle        string
	Author          string
	CoAuthor        string
	Publisher       string
	PublicationYear int
	Edition         int
	Copies          int
	CreatedBy       uint
}

// service 领域服务实现
type service struct {
	repo     Repository
	dictRepo dictionary.Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository, dictRepo dictionary.Repository) Service {
	return &service{repo: repo, dictRepo: dictRepo}
}

// PublishBook 编目上架
func (s *service) PublishBook(ctx context.Context, params PublishParams) (*Book, error) {
	// 1. 基本信息校验
	title := strings.TrimSpace(params.Title)
	author := strings.TrimSpace(params.Author)
	if title == "" || author == "" {
		return nil, ErrInvalidTitle
	}
	if params.Copies < 0 {
		return nil, ErrInvalidCopies
	}

	// 2. 索书号校验与规范化
	if err := ValidateCotaParts(params.CotaParts...); err != nil {
		return nil, err
	}
	code := DictionaryCode(params.CotaParts...)
	cota := ComposeCota(params.CotaParts...)

	// 3. 匹配词表词条
	entry, err := s.dictRepo.MatchCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// 4. 检查索书号是否已存在
	existing, err := s.repo.FindByCota(ctx, cota)
	if err == nil && existing != nil {
		return nil, ErrCotaDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return nil, err
	}

	// 5. 创建图书实体
	b := NewBook(cota, title, author, params.Copies, params.CreatedBy)
	b.Subtitle = strings.TrimSpace(params.Subtitle)
	b.CoAuthor = strings.TrimSpace(params.CoAuthor)
	b.Publisher = strings.TrimSpace(params.Publisher)
	b.PublicationYear = params.PublicationYear
	if params.Edition > 0 {
		b.Edition = params.Edition
	}

	// 6. 由词条派生分类并关联
	var classificationID uint
	if clsCode, label, ok := dictionary.DeriveClassification(entry); ok {
		cls, err := s.dictRepo.GetOrCreateClassification(ctx, clsCode, label)
		if err != nil {
			return nil, err
		}
		classificationID = cls.ID
	}
	b.LinkDictionary(entry.ID, classificationID)

	// 7. 持久化
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBooksByIDs 批量获取图书
func (s *service) GetBooksByIDs(ctx context.Context, ids []uint) ([]*Book, error) {
	if len(ids) == 0 {
		return []*Book{}, nil
	}
	books, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	ordered := make([]*Book, 0, len(books))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	return s.repo.List(ctx, params)
}

// SetActive 启用/停用图书
func (s *service) SetActive(ctx context.Context, id uint, active bool) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.SetActive(active)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
