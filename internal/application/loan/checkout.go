package loan

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/cart"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CheckoutUseCase 借出(把待借清单转为借阅记录)
type CheckoutUseCase struct {
	txManager loan.TxManager
	bookRepo  book.Repository
	loanRepo  loan.Repository
	store     cart.Store
	publisher loan.EventPublisher
	now       func() time.Time
}

// NewCheckoutUseCase 创建借出用例
func NewCheckoutUseCase(
	txManager loan.TxManager,
	bookRepo book.Repository,
	loanRepo loan.Repository,
	store cart.Store,
	publisher loan.EventPublisher,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		txManager: txManager,
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// CheckoutRequest 借出请求
type CheckoutRequest struct {
	ReceiverCedula    string
	ReceiverFirstName string
	ReceiverLastName  string
}

// Failure 单本图书借出失败
type Failure struct {
	BookID uint   `json:"book_id"`
	Reason string `json:"reason"` // no_stock | not_found
}

// CheckoutResponse 借出结果
// 单本失败不影响其他图书,Failed中的图书仍保留在清单中
type CheckoutResponse struct {
	Created        int        `json:"created"`
	Loans          []LoanView `json:"loans"`
	Failed         []Failure  `json:"failed"`
	RemainingCount int        `json:"remaining_count"`
}

// Execute 执行借出
//
// 并发问题:同一本书只剩最后一个副本,两个请求同时借出
// 处理方式:每本书都在事务内"加锁 → 统计 → 决策"
//  1. SELECT ... FROM books WHERE id = ? FOR UPDATE 锁定图书行
//  2. 在同一事务内统计借出中的数量,计算可借数
//  3. 可借数<=0记为失败(no_stock),继续处理下一本
//  4. 否则创建借阅记录
//  5. 全部处理完后一次提交;任何数据库错误都回滚整批
//
// 后一个请求在步骤1阻塞,直到前一个事务提交,因此一定能看到前一个请求创建的借阅
func (uc *CheckoutUseCase) Execute(ctx context.Context, actor loan.Actor, req CheckoutRequest) (resp *CheckoutResponse, err error) {
	// 1. 借书人校验(不访问数据库)
	receiver := loan.NewReceiver(req.ReceiverCedula, req.ReceiverFirstName, req.ReceiverLastName)
	if err := receiver.Validate(); err != nil {
		return nil, err
	}

	// 2. 读取待借清单
	sel, err := uc.store.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if sel.IsEmpty() {
		return nil, loan.ErrEmptyCart
	}

	ctx, span := tracing.StartSpan(ctx, "loan.Checkout")
	defer func() { tracing.End(span, err) }()
	span.SetAttributes(
		attribute.Int("loan.requested", sel.Len()),
		attribute.Int64("loan.holder_id", int64(actor.UserID)),
	)

	metrics.ObserveHistogram(metrics.CartItems, float64(sel.Len()))
	start := time.Now()
	defer func() {
		metrics.ObserveHistogram(metrics.LoanCheckoutDuration, time.Since(start).Seconds())
	}()

	// 3. 事务内逐本处理
	bookIDs := sel.Snapshot()
	var (
		created []*loan.Loan
		books   map[uint]*book.Book
		failed  []Failure
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		created, books, failed = nil, make(map[uint]*book.Book, len(bookIDs)), nil
		now := uc.now()

		for _, id := range bookIDs {
			b, err := uc.bookRepo.LockByID(txCtx, id)
			if errors.Is(err, book.ErrBookNotFound) {
				failed = append(failed, Failure{BookID: id, Reason: loan.ReasonNotFound})
				continue
			}
			if err != nil {
				return err
			}

			onLoan, err := uc.loanRepo.SumActiveByBook(txCtx, id)
			if err != nil {
				return err
			}
			if loan.Available(b.Copies, onLoan) <= 0 {
				failed = append(failed, Failure{BookID: id, Reason: loan.ReasonNoStock})
				continue
			}

			l := loan.NewLoan(id, actor.UserID, receiver, now)
			if err := uc.loanRepo.Create(txCtx, l); err != nil {
				return err
			}
			created = append(created, l)
			books[id] = b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. 提交后从清单移除借出成功的图书
	createdIDs := make([]uint, len(created))
	for i, l := range created {
		createdIDs[i] = l.BookID
	}
	sel.Without(createdIDs)
	if err := uc.store.Save(ctx, actor.UserID, sel); err != nil {
		// 借阅已提交,清单写回失败只记录日志
		logger.FromContext(ctx).ErrorContext(ctx, "借出后更新待借清单失败", "holder_id", actor.UserID, "error", err)
	}

	// 5. 发布事件(尽力而为)
	uc.publish(ctx, created)

	// 6. 指标与日志
	metrics.AddCounter(metrics.LoansCreatedTotal, float64(len(created)))
	for _, f := range failed {
		metrics.IncCounterVec(metrics.LoanCheckoutFailures, map[string]string{"reason": f.Reason})
	}
	span.SetAttributes(attribute.Int("loan.created", len(created)), attribute.Int("loan.failed", len(failed)))
	logger.FromContext(ctx).InfoContext(ctx, "借出完成",
		"holder_id", actor.UserID,
		"receiver", receiver.Cedula,
		"created", len(created),
		"failed", len(failed),
	)

	resp = &CheckoutResponse{
		Created:        len(created),
		Loans:          make([]LoanView, len(created)),
		Failed:         failed,
		RemainingCount: sel.Len(),
	}
	if resp.Failed == nil {
		resp.Failed = []Failure{}
	}
	for i, l := range created {
		resp.Loans[i] = NewLoanView(l, books[l.BookID])
	}
	return resp, nil
}

func (uc *CheckoutUseCase) publish(ctx context.Context, created []*loan.Loan) {
	if len(created) == 0 {
		return
	}
	evts := make([]loan.Event, len(created))
	for i, l := range created {
		evts[i] = loan.CreatedEvent(l)
	}
	if err := uc.publisher.Publish(ctx, evts...); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "借出事件发布失败", "count", len(evts), "error", err)
	}
}
