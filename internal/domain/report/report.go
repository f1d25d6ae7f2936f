package report

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Filter 统计过滤条件
// From/To按归还日期过滤(整天,闭区间);MinScore为nil表示不限
type Filter struct {
	From     *time.Time
	To       *time.Time
	MinScore *int
	Query    string // 借书人搜索(证件号、姓名)
	Page     int
	PageSize int
}

// BookSummary 单本图书的归还评价汇总
type BookSummary struct {
	BookID            uint
	Cota              string
	Title             string
	Author            string
	AvgBookRating     *float64
	AvgReceiverRating *float64
	Reports           int64 // 带报告的借阅数
	BookRatings       int64 // 有图书评分的借阅数
	ReceiverRatings   int64 // 有借书人评分的借阅数
}

// ReceiverSummary 单个借书人的评分汇总
type ReceiverSummary struct {
	Cedula            string
	FirstName         string
	LastName          string
	AvgReceiverRating float64
	Ratings           int64
}

// Averages 一组借阅的平均评分,没有评分时为nil
type Averages struct {
	Book     *float64
	Receiver *float64
}

// Repository 统计查询接口(只读)
// 设计说明:
// 1. 汇总与图书明细的统计范围为已归还且带报告或评分的借阅
// 2. 图书维度的MinScore:图书评分>=MinScore 或 借书人评分>=MinScore
// 3. 借书人维度的MinScore只作用于借书人评分
type Repository interface {
	// BookSummaries 按图书分组汇总,按索书号排序
	BookSummaries(ctx context.Context, f Filter) ([]BookSummary, int64, error)

	// BookLoans 某本书符合条件的借阅明细,按归还时间倒序
	BookLoans(ctx context.Context, bookID uint, f Filter) ([]*loan.Loan, int64, error)

	// BookAverages 某本书符合条件的借阅平均分
	BookAverages(ctx context.Context, bookID uint, f Filter) (Averages, error)

	// ReceiverSummaries 按借书人分组汇总,按平均分倒序
	ReceiverSummaries(ctx context.Context, f Filter) ([]ReceiverSummary, int64, error)

	// ReceiverLoans 某借书人的全部借阅,只按归还日期过滤,不限状态和评价
	ReceiverLoans(ctx context.Context, cedula string, f Filter) ([]*loan.Loan, int64, error)

	// ReceiverAverage 某借书人的平均借书人评分,范围同ReceiverLoans
	ReceiverAverage(ctx context.Context, cedula string, f Filter) (*float64, error)
}

// ErrCedulaRequired 缺少借书人证件号
var ErrCedulaRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "借书人证件号不能为空")
