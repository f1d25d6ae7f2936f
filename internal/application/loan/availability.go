package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
)

// Availability 图书可借情况
type Availability struct {
	BookID    uint `json:"book_id"`
	Total     int  `json:"total"`
	OnLoan    int  `json:"on_loan"`
	Available int  `json:"available"`
}

// HasStock 是否还有可借副本
func (a Availability) HasStock() bool {
	return a.Available > 0
}

// AvailabilityService 可借数量计算
// 每次都从数据库实时统计,不做缓存
type AvailabilityService struct {
	bookRepo book.Repository
	loanRepo loan.Repository
}

// NewAvailabilityService 创建可借数量服务
func NewAvailabilityService(bookRepo book.Repository, loanRepo loan.Repository) *AvailabilityService {
	return &AvailabilityService{bookRepo: bookRepo, loanRepo: loanRepo}
}

// ForBook 单本图书的可借情况
func (s *AvailabilityService) ForBook(ctx context.Context, bookID uint) (Availability, error) {
	b, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return Availability{}, err
	}
	return s.of(ctx, b)
}

// ForBooks 批量计算,结果按bookID索引,不存在的图书不出现在结果中
func (s *AvailabilityService) ForBooks(ctx context.Context, bookIDs []uint) (map[uint]Availability, error) {
	books, err := s.bookRepo.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	return s.OfBooks(ctx, books)
}

// OfBooks 已加载图书的可借情况(一次分组SUM查询)
func (s *AvailabilityService) OfBooks(ctx context.Context, books []*book.Book) (map[uint]Availability, error) {
	out := make(map[uint]Availability, len(books))
	if len(books) == 0 {
		return out, nil
	}

	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	onLoan, err := s.loanRepo.SumActiveByBooks(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, b := range books {
		out[b.ID] = compute(b, onLoan[b.ID])
	}
	return out, nil
}

func (s *AvailabilityService) of(ctx context.Context, b *book.Book) (Availability, error) {
	onLoan, err := s.loanRepo.SumActiveByBook(ctx, b.ID)
	if err != nil {
		return Availability{}, err
	}
	return compute(b, onLoan), nil
}

func compute(b *book.Book, onLoan int) Availability {
	return Availability{
		BookID:    b.ID,
		Total:     b.Copies,
		OnLoan:    onLoan,
		Available: loan.Available(b.Copies, onLoan),
	}
}
