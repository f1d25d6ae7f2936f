// Package report 归还评价统计用例(只读)
package report

import (
	"context"
	"strings"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/report"
)

// UseCase 统计查询
type UseCase struct {
	repo            report.Repository
	bookRepo        book.Repository
	defaultPageSize int
}

// NewUseCase 创建统计用例
func NewUseCase(repo report.Repository, bookRepo book.Repository, defaultPageSize int) *UseCase {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &UseCase{repo: repo, bookRepo: bookRepo, defaultPageSize: defaultPageSize}
}

// BookRatingView 图书评价汇总DTO
type BookRatingView struct {
	BookID            uint     `json:"book_id"`
	Cota              string   `json:"cota"`
	Title             string   `json:"title"`
	Author            string   `json:"author"`
	AvgBookRating     *float64 `json:"avg_book_rating"`
	AvgReceiverRating *float64 `json:"avg_receiver_rating"`
	Reports           int64    `json:"reports"`
	BookRatings       int64    `json:"book_ratings"`
	ReceiverRatings   int64    `json:"receiver_ratings"`
}

// BookDetail 单本图书的评价明细
type BookDetail struct {
	BookID            uint                                 `json:"book_id"`
	Cota              string                               `json:"cota"`
	Title             string                               `json:"title"`
	Author            string                               `json:"author"`
	AvgBookRating     *float64                             `json:"avg_book_rating"`
	AvgReceiverRating *float64                             `json:"avg_receiver_rating"`
	Loans             apploan.PageResult[apploan.LoanView] `json:"loans"`
}

// ReceiverRatingView 借书人评分汇总DTO
type ReceiverRatingView struct {
	Cedula            string  `json:"cedula"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	AvgReceiverRating float64 `json:"avg_receiver_rating"`
	Ratings           int64   `json:"ratings"`
}

// ReceiverDetail 单个借书人的评分明细
type ReceiverDetail struct {
	Cedula            string                               `json:"cedula"`
	FirstName         string                               `json:"first_name"`
	LastName          string                               `json:"last_name"`
	AvgReceiverRating *float64                             `json:"avg_receiver_rating"`
	Loans             apploan.PageResult[apploan.LoanView] `json:"loans"`
}

// BookRatings 按图书汇总
func (uc *UseCase) BookRatings(ctx context.Context, f report.Filter) (*apploan.PageResult[BookRatingView], error) {
	f = uc.normalize(f)
	rows, total, err := uc.repo.BookSummaries(ctx, f)
	if err != nil {
		return nil, err
	}

	list := make([]BookRatingView, len(rows))
	for i, r := range rows {
		list[i] = BookRatingView{
			BookID:            r.BookID,
			Cota:              r.Cota,
			Title:             r.Title,
			Author:            r.Author,
			AvgBookRating:     r.AvgBookRating,
			AvgReceiverRating: r.AvgReceiverRating,
			Reports:           r.Reports,
			BookRatings:       r.BookRatings,
			ReceiverRatings:   r.ReceiverRatings,
		}
	}
	return &apploan.PageResult[BookRatingView]{List: list, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// BookReport 某本书的借阅明细与平均分
func (uc *UseCase) BookReport(ctx context.Context, bookID uint, f report.Filter) (*BookDetail, error) {
	f = uc.normalize(f)

	// 1. 图书必须存在
	b, err := uc.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// 2. 明细
	loans, total, err := uc.repo.BookLoans(ctx, bookID, f)
	if err != nil {
		return nil, err
	}

	// 3. 平均分(基于全部符合条件的借阅,不受分页影响)
	avg, err := uc.repo.BookAverages(ctx, bookID, f)
	if err != nil {
		return nil, err
	}

	views := make([]apploan.LoanView, len(loans))
	for i, l := range loans {
		views[i] = apploan.NewLoanView(l, b)
	}
	return &BookDetail{
		BookID:            b.ID,
		Cota:              b.Cota,
		Title:             b.Title,
		Author:            b.Author,
		AvgBookRating:     avg.Book,
		AvgReceiverRating: avg.Receiver,
		Loans:             apploan.PageResult[apploan.LoanView]{List: views, Total: total, Page: f.Page, PageSize: f.PageSize},
	}, nil
}

// ReceiverRatings 按借书人汇总
func (uc *UseCase) ReceiverRatings(ctx context.Context, f report.Filter) (*apploan.PageResult[ReceiverRatingView], error) {
	f = uc.normalize(f)
	rows, total, err := uc.repo.ReceiverSummaries(ctx, f)
	if err != nil {
		return nil, err
	}

	list := make([]ReceiverRatingView, len(rows))
	for i, r := range rows {
		list[i] = ReceiverRatingView(r)
	}
	return &apploan.PageResult[ReceiverRatingView]{List: list, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// ReceiverReport 某借书人的借阅明细与平均分
// 只按归还日期过滤,MinScore与Query不生效
func (uc *UseCase) ReceiverReport(ctx context.Context, cedula string, f report.Filter) (*ReceiverDetail, error) {
	cedula = strings.TrimSpace(cedula)
	if cedula == "" {
		return nil, report.ErrCedulaRequired
	}
	f = uc.normalize(f)
	f.MinScore, f.Query = nil, ""

	loans, total, err := uc.repo.ReceiverLoans(ctx, cedula, f)
	if err != nil {
		return nil, err
	}
	avg, err := uc.repo.ReceiverAverage(ctx, cedula, f)
	if err != nil {
		return nil, err
	}
	views, err := uc.views(ctx, loans)
	if err != nil {
		return nil, err
	}

	out := &ReceiverDetail{
		Cedula:            cedula,
		AvgReceiverRating: avg,
		Loans:             apploan.PageResult[apploan.LoanView]{List: views, Total: total, Page: f.Page, PageSize: f.PageSize},
	}
	if len(loans) > 0 {
		out.FirstName = loans[0].Receiver.FirstName
		out.LastName = loans[0].Receiver.LastName
	}
	return out, nil
}

func (uc *UseCase) views(ctx context.Context, loans []*loan.Loan) ([]apploan.LoanView, error) {
	ids := make([]uint, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.BookID)
	}
	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	views := make([]apploan.LoanView, len(loans))
	for i, l := range loans {
		views[i] = apploan.NewLoanView(l, byID[l.BookID])
	}
	return views, nil
}

// normalize 分页默认值;超出[1,5]的最低分视为不限
func (uc *UseCase) normalize(f report.Filter) report.Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = uc.defaultPageSize
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	if f.MinScore != nil && (*f.MinScore < loan.MinRating || *f.MinScore > loan.MaxRating) {
		f.MinScore = nil
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}
