package book

import (
	"context"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/pkg/logger"
)

// BookDetail 图书详情DTO(含可借情况)
type BookDetail struct {
	ID                uint   `json:"id"`
	Cota              string `json:"cota"`
	Title             string `json:"title"`
	Subtitle          string `json:"subtitle,omitempty"`
	Author            string `json:"author"`
	CoAuthor          string `json:"co_author,omitempty"`
	Publisher         string `json:"publisher,omitempty"`
	PublicationYear   int    `json:"publication_year,omitempty"`
	Edition           int    `json:"edition"`
	IsActive          bool   `json:"is_active"`
	ClassificationID  *uint  `json:"classification_id,omitempty"`
	DictionaryEntryID *uint  `json:"dictionary_entry_id,omitempty"`
	Total             int    `json:"total"`
	OnLoan            int    `json:"on_loan"`
	Available         int    `json:"available"`
	CreatedAt         string `json:"created_at"`
}

func newBookDetail(b *book.Book, total, onLoan int) *BookDetail {
	return &BookDetail{
		ID:                b.ID,
		Cota:              b.Cota,
		Title:             b.Title,
		Subtitle:          b.Subtitle,
		Author:            b.Author,
		CoAuthor:          b.CoAuthor,
		Publisher:         b.Publisher,
		PublicationYear:   b.PublicationYear,
		Edition:           b.Edition,
		IsActive:          b.IsActive,
		ClassificationID:  b.ClassificationID,
		DictionaryEntryID: b.DictionaryEntryID,
		Total:             total,
		OnLoan:            onLoan,
		Available:         total - onLoan,
		CreatedAt:         b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GetBookUseCase 图书详情
// 每次成功查看记录一条view事件,recorder为nil时不记录
type GetBookUseCase struct {
	bookService  book.Service
	availability *apploan.AvailabilityService
	recorder     analytics.Recorder
}

// NewGetBookUseCase 创建图书详情用例
func NewGetBookUseCase(
	bookService book.Service,
	availability *apploan.AvailabilityService,
	recorder analytics.Recorder,
) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService, availability: availability, recorder: recorder}
}

// Execute 查询图书及其可借情况
// viewerID为0表示匿名访问
func (uc *GetBookUseCase) Execute(ctx context.Context, id, viewerID uint) (*BookDetail, error) {
	b, err := uc.bookService.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.recorder != nil {
		uc.recorder.Record(ctx, analytics.EventView, viewerID, b.ID)
	}
	avail, err := uc.availability.OfBooks(ctx, []*book.Book{b})
	if err != nil {
		return nil, err
	}
	a := avail[b.ID]
	return newBookDetail(b, a.Total, a.OnLoan), nil
}

// SetActiveUseCase 启用/停用图书(馆员)
// 停用的图书仍保留在目录中,只是不能再加入待借清单
type SetActiveUseCase struct {
	bookService  book.Service
	availability *apploan.AvailabilityService
}

// NewSetActiveUseCase 创建启用/停用用例
func NewSetActiveUseCase(bookService book.Service, availability *apploan.AvailabilityService) *SetActiveUseCase {
	return &SetActiveUseCase{bookService: bookService, availability: availability}
}

// Execute 启用/停用
func (uc *SetActiveUseCase) Execute(ctx context.Context, id uint, active bool) (*BookDetail, error) {
	b, err := uc.bookService.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).InfoContext(ctx, "图书状态已更新", "book_id", id, "active", active)

	avail, err := uc.availability.OfBooks(ctx, []*book.Book{b})
	if err != nil {
		return nil, err
	}
	a := avail[b.ID]
	return newBookDetail(b, a.Total, a.OnLoan), nil
}
