package loan

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/cart"
	"github.com/xiebiao/library/internal/domain/loan"
)

// NoStockError 加入待借清单时无可借副本
// 携带当前可借情况,前端据此提示
type NoStockError struct {
	Availability Availability
}

func (e *NoStockError) Error() string {
	return fmt.Sprintf("图书%d暂无可借副本(可借%d/共%d)", e.Availability.BookID, e.Availability.Available, e.Availability.Total)
}

func (e *NoStockError) Unwrap() error {
	return loan.ErrNoAvailability
}

// CartItem 待借清单中的一本书
type CartItem struct {
	BookID    uint   `json:"book_id"`
	Cota      string `json:"cota"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	IsActive  bool   `json:"is_active"`
	Total     int    `json:"total"`
	OnLoan    int    `json:"on_loan"`
	Available int    `json:"available"`
}

// CartView 待借清单DTO
type CartView struct {
	Items   []CartItem `json:"items"`
	Count   int        `json:"count"`
	AddedBy string     `json:"added_by,omitempty"`
}

// CartUseCase 待借清单管理
// 清单按用户保存在Store中,每个请求读出、修改、写回
type CartUseCase struct {
	bookRepo     book.Repository
	availability *AvailabilityService
	store        cart.Store
}

// NewCartUseCase 创建待借清单用例
func NewCartUseCase(bookRepo book.Repository, availability *AvailabilityService, store cart.Store) *CartUseCase {
	return &CartUseCase{bookRepo: bookRepo, availability: availability, store: store}
}

// Add 加入待借清单
// 业务规则:
// 1. 图书必须存在且未停用
// 2. 当前必须有可借副本,否则返回NoStockError
// 3. 已在清单中时不重复加入
// 4. 超出上限时淘汰最早加入的
func (uc *CartUseCase) Add(ctx context.Context, actor loan.Actor, bookID uint) (*CartView, error) {
	// 1. 检查图书
	b, err := uc.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, book.ErrBookInactive
	}

	// 2. 检查可借数量
	avail, err := uc.availability.of(ctx, b)
	if err != nil {
		return nil, err
	}
	if !avail.HasStock() {
		return nil, &NoStockError{Availability: avail}
	}

	// 3. 加入清单并保存
	sel, err := uc.store.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if sel.Add(bookID) {
		sel.AddedBy = actor.Name
		if err := uc.store.Save(ctx, actor.UserID, sel); err != nil {
			return nil, err
		}
	}
	return uc.view(ctx, sel)
}

// Remove 从清单移除,不在清单中时不报错
func (uc *CartUseCase) Remove(ctx context.Context, actor loan.Actor, bookID uint) (*CartView, error) {
	sel, err := uc.store.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if sel.Contains(bookID) {
		sel.Remove(bookID)
		if err := uc.store.Save(ctx, actor.UserID, sel); err != nil {
			return nil, err
		}
	}
	return uc.view(ctx, sel)
}

// List 查看清单
func (uc *CartUseCase) List(ctx context.Context, actor loan.Actor) (*CartView, error) {
	sel, err := uc.store.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, sel)
}

// Clear 清空清单
func (uc *CartUseCase) Clear(ctx context.Context, actor loan.Actor) error {
	return uc.store.Clear(ctx, actor.UserID)
}

// view 按清单顺序组装,已删除的图书直接跳过
func (uc *CartUseCase) view(ctx context.Context, sel *cart.Selection) (*CartView, error) {
	ids := sel.Snapshot()
	out := &CartView{Items: make([]CartItem, 0, len(ids)), AddedBy: sel.AddedBy}
	if len(ids) == 0 {
		return out, nil
	}

	books, err := uc.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	avail, err := uc.availability.OfBooks(ctx, books)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			continue
		}
		a := avail[id]
		out.Items = append(out.Items, CartItem{
			BookID:    b.ID,
			Cota:      b.Cota,
			Title:     b.Title,
			Author:    b.Author,
			IsActive:  b.IsActive,
			Total:     a.Total,
			OnLoan:    a.OnLoan,
			Available: a.Available,
		})
	}
	out.Count = len(out.Items)
	return out, nil
}

// IsNoStock 是否为无可借副本错误
func IsNoStock(err error) (*NoStockError, bool) {
	var e *NoStockError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
