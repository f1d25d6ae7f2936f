package loan

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
)

// ListLoansUseCase 借阅列表查询
// 馆员可以看到所有人办理的借阅,普通用户只能看到自己办理的
type ListLoansUseCase struct {
	loanRepo        loan.Repository
	bookRepo        book.Repository
	defaultPageSize int
}

// NewListLoansUseCase 创建借阅列表用例
func NewListLoansUseCase(loanRepo loan.Repository, bookRepo book.Repository, defaultPageSize int) *ListLoansUseCase {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &ListLoansUseCase{loanRepo: loanRepo, bookRepo: bookRepo, defaultPageSize: defaultPageSize}
}

// ReturnedQuery 归还历史查询条件
// 日期为整天,闭区间;为nil表示不限
type ReturnedQuery struct {
	Keyword   string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// Active 借出中的借阅,按借出时间倒序
func (uc *ListLoansUseCase) Active(ctx context.Context, actor loan.Actor, page, pageSize int) (*PageResult[LoanView], error) {
	page, pageSize = normalizePage(page, pageSize, uc.defaultPageSize)
	return uc.list(ctx, loan.ListParams{
		Status:   loan.StatusActive,
		HolderID: visibleHolder(actor),
		Page:     page,
		PageSize: pageSize,
	})
}

// Returned 归还历史,按归还时间倒序
func (uc *ListLoansUseCase) Returned(ctx context.Context, actor loan.Actor, q ReturnedQuery) (*PageResult[LoanView], error) {
	page, pageSize := normalizePage(q.Page, q.PageSize, uc.defaultPageSize)
	return uc.list(ctx, loan.ListParams{
		Status:       loan.StatusReturned,
		HolderID:     visibleHolder(actor),
		TitleKeyword: q.Keyword,
		ReturnedFrom: q.StartDate,
		ReturnedTo:   q.EndDate,
		Page:         page,
		PageSize:     pageSize,
	})
}

func (uc *ListLoansUseCase) list(ctx context.Context, params loan.ListParams) (*PageResult[LoanView], error) {
	loans, total, err := uc.loanRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	views, err := viewsWithBooks(ctx, uc.bookRepo, loans)
	if err != nil {
		return nil, err
	}
	return &PageResult[LoanView]{List: views, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// visibleHolder 馆员不限办理人
func visibleHolder(actor loan.Actor) uint {
	if actor.IsStaff {
		return 0
	}
	return actor.UserID
}

// viewsWithBooks 批量补充图书索书号与书名
func viewsWithBooks(ctx context.Context, bookRepo book.Repository, loans []*loan.Loan) ([]LoanView, error) {
	views := make([]LoanView, len(loans))
	if len(loans) == 0 {
		return views, nil
	}

	seen := make(map[uint]struct{}, len(loans))
	ids := make([]uint, 0, len(loans))
	for _, l := range loans {
		if _, ok := seen[l.BookID]; !ok {
			seen[l.BookID] = struct{}{}
			ids = append(ids, l.BookID)
		}
	}
	books, err := bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	for i, l := range loans {
		views[i] = NewLoanView(l, byID[l.BookID])
	}
	return views, nil
}
