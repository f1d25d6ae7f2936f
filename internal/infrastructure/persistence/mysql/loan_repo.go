package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// loanRepository 借阅仓储实现(MySQL)
// 同时实现loan.Repository与loan.MaintenanceRepository
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// NewLoanMaintenanceRepository 创建历史数据修复仓储
func NewLoanMaintenanceRepository(db *gorm.DB) loan.MaintenanceRepository {
	return &loanRepository{db: db}
}

// Create 创建借阅记录
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := toLoanModel(l)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}
	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找借阅记录
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err, loan.ErrLoanNotFound, "查询借阅记录失败")
	}
	return toLoanEntity(&model), nil
}

// LockByID 悲观锁查询借阅记录
// 归还流程在事务中调用,并发归还同一记录时第二个请求会等待第一个提交,随后看到returned状态
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		return nil, notFoundOr(err, loan.ErrLoanNotFound, "锁定借阅记录失败")
	}
	return toLoanEntity(&model), nil
}

// Update 保存归还结果
// 只更新归还相关的列,借出信息保持不变
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	result := conn(ctx, r.db).Model(&LoanModel{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"status":                 string(l.Status),
		"returned_at":            l.ReturnedAt,
		"return_report":          l.ReturnReport,
		"return_book_rating":     l.BookRating,
		"return_receiver_rating": l.ReceiverRating,
		"updated_at":             l.UpdatedAt,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅记录失败")
	}
	if result.RowsAffected == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

// SumActiveByBook 统计某本书借出中的数量
// SELECT COALESCE(SUM(quantity),0) FROM loans WHERE book_id=? AND status=? FOR SHARE
// 借出时在图书行锁之后调用，加锁读取保证看到最新提交的借阅
func (r *loanRepository) SumActiveByBook(ctx context.Context, bookID uint) (int, error) {
	var row activeSum
	if err := activeSumQuery(conn(ctx, r.db), bookID).Find(&row).Error; err != nil {
		return 0, apperrors.Wrap(err, "统计借出数量失败")
	}
	return int(row.Total), nil
}

type activeSum struct {
	Total int64
}

func activeSumQuery(db *gorm.DB, bookID uint) *gorm.DB {
	return db.Model(&LoanModel{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("book_id = ? AND status = ?", bookID, string(loan.StatusActive)).
		Clauses(clause.Locking{Strength: "SHARE"})
}

// SumActiveByBooks 批量统计借出中的数量
func (r *loanRepository) SumActiveByBooks(ctx context.Context, bookIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		BookID uint
		Total  int64
	}
	err := conn(ctx, r.db).Model(&LoanModel{}).
		Select("book_id, COALESCE(SUM(quantity), 0) AS total").
		Where("book_id IN ? AND status = ?", bookIDs, string(loan.StatusActive)).
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "批量统计借出数量失败")
	}
	for _, row := range rows {
		out[row.BookID] = int(row.Total)
	}
	return out, nil
}

// List 分页查询借阅记录
// 借出中按借出时间倒序,已归还按归还时间倒序
func (r *loanRepository) List(ctx context.Context, params loan.ListParams) ([]*loan.Loan, int64, error) {
	query := conn(ctx, r.db).Model(&LoanModel{})

	if params.Status != "" {
		query = query.Where("loans.status = ?", string(params.Status))
	}
	if params.HolderID != 0 {
		query = query.Where("loans.holder_id = ?", params.HolderID)
	}
	if params.TitleKeyword != "" {
		query = query.Joins("JOIN books ON books.id = loans.book_id").
			Where("books.title LIKE ?", likePattern(params.TitleKeyword))
	}
	query = dayRange(query, "loans.returned_at", params.ReturnedFrom, params.ReturnedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅总数失败")
	}

	if params.Status == loan.StatusReturned {
		query = query.Order("loans.returned_at DESC")
	} else {
		query = query.Order("loans.approved_at DESC")
	}
	query = query.Order("loans.id DESC")

	var models []LoanModel
	if err := paginate(query, params.Page, params.PageSize).Select("loans.*").Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询借阅列表失败")
	}
	return toLoanEntities(models), total, nil
}

// =========================================
// 历史数据修复
// =========================================

// CountMissingTimestamps 统计缺失时间戳的记录
func (r *loanRepository) CountMissingTimestamps(ctx context.Context) (loan.MissingTimestamps, error) {
	var m loan.MissingTimestamps
	db := conn(ctx, r.db)
	if err := db.Model(&LoanModel{}).Where("approved_at IS NULL").Count(&m.ApprovedAt).Error; err != nil {
		return m, apperrors.Wrap(err, "统计缺失借出时间失败")
	}
	err := db.Model(&LoanModel{}).
		Where("status = ? AND returned_at IS NULL", string(loan.StatusReturned)).
		Count(&m.ReturnedAt).Error
	if err != nil {
		return m, apperrors.Wrap(err, "统计缺失归还时间失败")
	}
	return m, nil
}

// FillReturnedFromApproved 已归还且缺returned_at的记录,用approved_at补齐
func (r *loanRepository) FillReturnedFromApproved(ctx context.Context) (int64, error) {
	result := conn(ctx, r.db).Model(&LoanModel{}).
		Where("status = ? AND returned_at IS NULL AND approved_at IS NOT NULL", string(loan.StatusReturned)).
		Update("returned_at", gorm.Expr("approved_at"))
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "补齐归还时间失败")
	}
	return result.RowsAffected, nil
}

// FillApprovedAt 用指定时间补齐approved_at
func (r *loanRepository) FillApprovedAt(ctx context.Context, at time.Time) (int64, error) {
	result := conn(ctx, r.db).Model(&LoanModel{}).
		Where("approved_at IS NULL").
		Update("approved_at", at)
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "补齐借出时间失败")
	}
	return result.RowsAffected, nil
}

// FillReturnedAt 已归还且仍缺returned_at的记录,用指定时间补齐
func (r *loanRepository) FillReturnedAt(ctx context.Context, at time.Time) (int64, error) {
	result := conn(ctx, r.db).Model(&LoanModel{}).
		Where("status = ? AND returned_at IS NULL", string(loan.StatusReturned)).
		Update("returned_at", at)
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "补齐归还时间失败")
	}
	return result.RowsAffected, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toLoanModel(l *loan.Loan) *LoanModel {
	m := &LoanModel{
		ID:                   l.ID,
		BookID:               l.BookID,
		HolderID:             l.HolderID,
		Quantity:             l.Quantity,
		ReceiverCedula:       l.Receiver.Cedula,
		ReceiverFirstName:    l.Receiver.FirstName,
		ReceiverLastName:     l.Receiver.LastName,
		Status:               string(l.Status),
		ReturnedAt:           l.ReturnedAt,
		ReturnReport:         l.ReturnReport,
		ReturnBookRating:     l.BookRating,
		ReturnReceiverRating: l.ReceiverRating,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
	if !l.ApprovedAt.IsZero() {
		approved := l.ApprovedAt
		m.ApprovedAt = &approved
	}
	return m
}

func toLoanEntity(m *LoanModel) *loan.Loan {
	l := &loan.Loan{
		ID:       m.ID,
		BookID:   m.BookID,
		HolderID: m.HolderID,
		Quantity: m.Quantity,
		Receiver: loan.Receiver{
			Cedula:    m.ReceiverCedula,
			FirstName: m.ReceiverFirstName,
			LastName:  m.ReceiverLastName,
		},
		Status:         loan.Status(m.Status),
		ReturnedAt:     m.ReturnedAt,
		ReturnReport:   m.ReturnReport,
		BookRating:     m.ReturnBookRating,
		ReceiverRating: m.ReturnReceiverRating,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ApprovedAt != nil {
		l.ApprovedAt = *m.ApprovedAt
	}
	return l
}

func toLoanEntities(models []LoanModel) []*loan.Loan {
	out := make([]*loan.Loan, len(models))
	for i := range models {
		out[i] = toLoanEntity(&models[i])
	}
	return out
}
