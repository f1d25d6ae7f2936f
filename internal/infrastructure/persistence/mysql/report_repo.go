package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/report"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// reportRepository 归还评价统计(只读)
// 统计范围:已归还,且带归还报告或任一评分的借阅;借书人明细除外,见receiverScope
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建统计仓储
func NewReportRepository(db *gorm.DB) report.Repository {
	return &reportRepository{db: db}
}

// reviewed 统计范围 + 归还日期过滤
func (r *reportRepository) reviewed(ctx context.Context, f report.Filter) *gorm.DB {
	return reviewedScope(conn(ctx, r.db), f)
}

func reviewedScope(db *gorm.DB, f report.Filter) *gorm.DB {
	q := db.Model(&LoanModel{}).
		Where("loans.status = ?", string(loan.StatusReturned)).
		Where("(loans.return_report <> '' OR loans.return_book_rating IS NOT NULL OR loans.return_receiver_rating IS NOT NULL)")
	return dayRange(q, "loans.returned_at", f.From, f.To)
}

// withBookScore 图书维度的最低分:任一评分达到即可
func withBookScore(q *gorm.DB, minScore *int) *gorm.DB {
	if minScore == nil {
		return q
	}
	return q.Where("(loans.return_book_rating >= ? OR loans.return_receiver_rating >= ?)", *minScore, *minScore)
}

// bookSummaryScope 图书汇总的过滤条件
// Query按索书号、书名、作者做包含匹配,为空时不过滤
func bookSummaryScope(db *gorm.DB, f report.Filter) *gorm.DB {
	q := withBookScore(reviewedScope(db, f), f.MinScore).
		Joins("JOIN books ON books.id = loans.book_id")
	if kw := strings.TrimSpace(f.Query); kw != "" {
		p := likePattern(kw)
		q = q.Where("(books.cota LIKE ? OR books.title LIKE ? OR books.author LIKE ?)", p, p, p)
	}
	return q
}

// BookSummaries 按图书分组汇总
func (r *reportRepository) BookSummaries(ctx context.Context, f report.Filter) ([]report.BookSummary, int64, error) {
	scoped := func() *gorm.DB {
		return bookSummaryScope(conn(ctx, r.db), f)
	}

	var total int64
	if err := scoped().Distinct("loans.book_id").Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计图书评价总数失败")
	}

	var rows []report.BookSummary
	err := paginate(scoped(), f.Page, f.PageSize).
		Select(`loans.book_id AS book_id, books.cota AS cota, books.title AS title, books.author AS author,
			AVG(loans.return_book_rating) AS avg_book_rating,
			AVG(loans.return_receiver_rating) AS avg_receiver_rating,
			SUM(CASE WHEN loans.return_report <> '' THEN 1 ELSE 0 END) AS reports,
			COUNT(loans.return_book_rating) AS book_ratings,
			COUNT(loans.return_receiver_rating) AS receiver_ratings`).
		Group("loans.book_id, books.cota, books.title, books.author").
		Order("books.cota ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书评价汇总失败")
	}
	return rows, total, nil
}

// BookLoans 某本书符合条件的借阅明细
func (r *reportRepository) BookLoans(ctx context.Context, bookID uint, f report.Filter) ([]*loan.Loan, int64, error) {
	scoped := func() *gorm.DB {
		return withBookScore(r.reviewed(ctx, f), f.MinScore).Where("loans.book_id = ?", bookID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计借阅明细失败")
	}

	var models []LoanModel
	err := paginate(scoped().Order("loans.returned_at DESC").Order("loans.id DESC"), f.Page, f.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅明细失败")
	}
	return toLoanEntities(models), total, nil
}

// BookAverages 某本书符合条件的借阅平均分
func (r *reportRepository) BookAverages(ctx context.Context, bookID uint, f report.Filter) (report.Averages, error) {
	var row struct {
		Book     *float64
		Receiver *float64
	}
	err := withBookScore(r.reviewed(ctx, f), f.MinScore).
		Where("loans.book_id = ?", bookID).
		Select("AVG(loans.return_book_rating) AS book, AVG(loans.return_receiver_rating) AS receiver").
		Scan(&row).Error
	if err != nil {
		return report.Averages{}, apperrors.Wrap(err, "计算平均分失败")
	}
	return report.Averages{Book: row.Book, Receiver: row.Receiver}, nil
}

// ReceiverSummaries 按借书人分组汇总
// 只统计有借书人评分的借阅,MinScore作用于借书人评分
func (r *reportRepository) ReceiverSummaries(ctx context.Context, f report.Filter) ([]report.ReceiverSummary, int64, error) {
	scoped := func() *gorm.DB {
		q := r.reviewed(ctx, f).Where("loans.return_receiver_rating IS NOT NULL")
		if f.MinScore != nil {
			q = q.Where("loans.return_receiver_rating >= ?", *f.MinScore)
		}
		if kw := strings.TrimSpace(f.Query); kw != "" {
			p := likePattern(kw)
			q = q.Where("(loans.receiver_cedula LIKE ? OR loans.receiver_first_name LIKE ? OR loans.receiver_last_name LIKE ?)", p, p, p)
		}
		return q
	}

	var total int64
	if err := scoped().Distinct("loans.receiver_cedula").Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计借书人总数失败")
	}

	var rows []report.ReceiverSummary
	err := paginate(scoped(), f.Page, f.PageSize).
		Select(`loans.receiver_cedula AS cedula,
			MAX(loans.receiver_first_name) AS first_name,
			MAX(loans.receiver_last_name) AS last_name,
			AVG(loans.return_receiver_rating) AS avg_receiver_rating,
			COUNT(*) AS ratings`).
		Group("loans.receiver_cedula").
		Order("avg_receiver_rating DESC").
		Order("loans.receiver_cedula ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借书人评分汇总失败")
	}
	return rows, total, nil
}

// receiverScope 某借书人的全部借阅,只按归还日期过滤
// 不要求已归还或带评价;给定日期时未归还的借阅自然被排除
func receiverScope(db *gorm.DB, cedula string, f report.Filter) *gorm.DB {
	q := db.Model(&LoanModel{}).Where("loans.receiver_cedula = ?", cedula)
	return dayRange(q, "loans.returned_at", f.From, f.To)
}

// ReceiverLoans 某借书人的借阅明细,按归还时间、借出时间倒序
func (r *reportRepository) ReceiverLoans(ctx context.Context, cedula string, f report.Filter) ([]*loan.Loan, int64, error) {
	scoped := func() *gorm.DB {
		return receiverScope(conn(ctx, r.db), cedula, f)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计借书人借阅失败")
	}

	var models []LoanModel
	err := paginate(scoped().Order("loans.returned_at DESC").Order("loans.approved_at DESC").Order("loans.id DESC"), f.Page, f.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借书人借阅失败")
	}
	return toLoanEntities(models), total, nil
}

// ReceiverAverage 某借书人的平均借书人评分
func (r *reportRepository) ReceiverAverage(ctx context.Context, cedula string, f report.Filter) (*float64, error) {
	var row struct {
		Avg *float64
	}
	err := receiverScope(conn(ctx, r.db), cedula, f).
		Select("AVG(loans.return_receiver_rating) AS avg").
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "计算借书人平均分失败")
	}
	return row.Avg, nil
}
