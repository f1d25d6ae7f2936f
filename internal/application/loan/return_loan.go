package loan

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// ReturnLoanUseCase 归还
type ReturnLoanUseCase struct {
	txManager    loan.TxManager
	loanRepo     loan.Repository
	availability *AvailabilityService
	publisher    loan.EventPublisher
	now          func() time.Time
}

// NewReturnLoanUseCase 创建归还用例
func NewReturnLoanUseCase(
	txManager loan.TxManager,
	loanRepo loan.Repository,
	availability *AvailabilityService,
	publisher loan.EventPublisher,
) *ReturnLoanUseCase {
	return &ReturnLoanUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		availability: availability,
		publisher:    publisher,
		now:          time.Now,
	}
}

// ReturnRequest 归还请求
// 评分为原始字符串,不合法的值按未评分处理
type ReturnRequest struct {
	LoanID         uint
	Report         string
	BookRating     string
	ReceiverRating string
}

// ReturnResponse 归还结果,附带图书最新的可借情况
type ReturnResponse struct {
	LoanID         uint   `json:"loan_id"`
	BookID         uint   `json:"book_id"`
	ReturnedAt     string `json:"returned_at"`
	Report         string `json:"return_report"`
	BookRating     *int   `json:"return_book_rating"`
	ReceiverRating *int   `json:"return_receiver_rating"`
	OnLoan         int    `json:"on_loan"`
	Total          int    `json:"total"`
	Available      int    `json:"available"`
}

// Execute 执行归还
// 业务规则:
// 1. 借阅行加锁后再判断状态,并发归还只有一个成功
// 2. 只有办理人或馆员可以归还
// 3. 已归还的借阅再次归还返回ErrLoanAlreadyReturned,不做任何修改
func (uc *ReturnLoanUseCase) Execute(ctx context.Context, actor loan.Actor, req ReturnRequest) (resp *ReturnResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "loan.Return")
	defer func() { tracing.End(span, err) }()
	span.SetAttributes(attribute.Int64("loan.id", int64(req.LoanID)))

	input := loan.ReturnInput{
		Report:         req.Report,
		BookRating:     loan.ParseRating(req.BookRating),
		ReceiverRating: loan.ParseRating(req.ReceiverRating),
	}

	var returned *loan.Loan
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 锁定借阅记录
		l, err := uc.loanRepo.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}

		// 2. 权限检查
		if !l.CanBeReturnedBy(actor) {
			return loan.ErrNotAllowedToReturn
		}

		// 3. 状态流转
		if err := l.Return(uc.now(), input); err != nil {
			return err
		}

		// 4. 持久化
		if err := uc.loanRepo.Update(txCtx, l); err != nil {
			return err
		}
		returned = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.LoansReturnedTotal)
	if err := uc.publisher.Publish(ctx, loan.ReturnedEvent(returned)); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "归还事件发布失败", "loan_id", returned.ID, "error", err)
	}
	logger.FromContext(ctx).InfoContext(ctx, "归还完成",
		"loan_id", returned.ID,
		"book_id", returned.BookID,
		"actor_id", actor.UserID,
	)

	// 5. 重新计算可借数量
	// 归还已提交,查询失败时只记录日志并返回归还结果
	resp = &ReturnResponse{
		LoanID:         returned.ID,
		BookID:         returned.BookID,
		ReturnedAt:     formatTime(*returned.ReturnedAt),
		Report:         returned.ReturnReport,
		BookRating:     returned.BookRating,
		ReceiverRating: returned.ReceiverRating,
	}
	avail, aerr := uc.availability.ForBook(ctx, returned.BookID)
	if aerr != nil {
		if !errors.Is(aerr, book.ErrBookNotFound) {
			logger.FromContext(ctx).ErrorContext(ctx, "归还后计算可借数量失败", "book_id", returned.BookID, "error", aerr)
		}
		return resp, nil
	}
	resp.OnLoan, resp.Total, resp.Available = avail.OnLoan, avail.Total, avail.Available
	return resp, nil
}
