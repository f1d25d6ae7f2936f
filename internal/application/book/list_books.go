package book

import (
	"context"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 支持分页、关键词搜索、按分类过滤
// 2. 每本书附带可借情况,整页只发一次分组SUM查询
type ListBooksUseCase struct {
	bookService  book.Service
	availability *apploan.AvailabilityService
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service, availability *apploan.AvailabilityService) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService:  bookService,
		availability: availability,
	}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Page             int
	PageSize         int
	Keyword          string // 搜索书名、作者、索书号
	ClassificationID uint
	OnlyActive       bool
	SortBy           string // cota_asc(默认), title_asc, created_at_desc
}

// BookListItem 列表项DTO
type BookListItem struct {
	ID        uint   `json:"id"`
	Cota      string `json:"cota"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	IsActive  bool   `json:"is_active"`
	Total     int    `json:"total"`
	OnLoan    int    `json:"on_loan"`
	Available int    `json:"available"`
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Execute 执行列表查询用例
// 1. 参数默认值(page默认1, pageSize默认10,最大100)
// 2. 查询当前页图书
// 3. 批量计算可借情况
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 2. 查询图书
	books, total, err := uc.bookService.ListBooks(ctx, book.ListParams{
		Page:             req.Page,
		PageSize:         req.PageSize,
		Keyword:          req.Keyword,
		ClassificationID: req.ClassificationID,
		OnlyActive:       req.OnlyActive,
		SortBy:           req.SortBy,
	})
	if err != nil {
		return nil, err
	}

	// 3. 可借情况
	avail, err := uc.availability.OfBooks(ctx, books)
	if err != nil {
		return nil, err
	}

	// 4. 转换为DTO
	list := make([]BookListItem, len(books))
	for i, b := range books {
		a := avail[b.ID]
		list[i] = BookListItem{
			ID:        b.ID,
			Cota:      b.Cota,
			Title:     b.Title,
			Author:    b.Author,
			Publisher: b.Publisher,
			IsActive:  b.IsActive,
			Total:     a.Total,
			OnLoan:    a.OnLoan,
			Available: a.Available,
		}
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize > 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
