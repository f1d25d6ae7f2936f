package loan

import (
	"context"
	"time"
)

// Repository 借阅仓储接口
// 设计说明:
// 1. LockByID与SumActiveByBook必须使用ctx中的事务连接,保证"加锁-计算-决策"在同一事务内
// 2. 借阅记录只由借出与归还两个流程写入,本接口不提供删除
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, loan *Loan) error

	// FindByID 根据ID查找借阅记录
	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID 悲观锁查询借阅记录(SELECT FOR UPDATE)
	// 用于归还流程,防止并发重复归还
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// Update 保存归还结果(状态、归还时间、报告、评分)
	Update(ctx context.Context, loan *Loan) error

	// SumActiveByBook 统计某本书借出中的数量
	// 事务内必须是当前读(加锁读取),能看到其他事务已提交的借阅
	SumActiveByBook(ctx context.Context, bookID uint) (int, error)

	// SumActiveByBooks 批量统计借出中的数量,未出现的bookID数量为0
	// 普通读取,只用于展示
	SumActiveByBooks(ctx context.Context, bookIDs []uint) (map[uint]int, error)

	// List 分页查询借阅记录
	List(ctx context.Context, params ListParams) ([]*Loan, int64, error)
}

// ListParams 借阅列表查询参数
type ListParams struct {
	Status       Status
	HolderID     uint       // 0表示不限(管理员)
	TitleKeyword string     // 按书名模糊搜索
	ReturnedFrom *time.Time // returned_at >= ReturnedFrom
	ReturnedTo   *time.Time // returned_at < ReturnedTo
	Page         int
	PageSize     int
}

// MissingTimestamps 缺失时间戳统计
type MissingTimestamps struct {
	ApprovedAt int64 // approved_at为空的记录数
	ReturnedAt int64 // 已归还但returned_at为空的记录数
}

// MaintenanceRepository 历史数据修复
// 旧数据导入时可能缺少approved_at/returned_at,由运维命令补齐
type MaintenanceRepository interface {
	// CountMissingTimestamps 统计缺失时间戳的记录
	CountMissingTimestamps(ctx context.Context) (MissingTimestamps, error)

	// FillReturnedFromApproved 已归还且缺returned_at的记录,用approved_at补齐
	FillReturnedFromApproved(ctx context.Context) (int64, error)

	// FillApprovedAt 用指定时间补齐approved_at
	FillApprovedAt(ctx context.Context, at time.Time) (int64, error)

	// FillReturnedAt 已归还且仍缺returned_at的记录,用指定时间补齐
	FillReturnedAt(ctx context.Context, at time.Time) (int64, error)
}

// TxManager 事务管理器接口
// fn内通过ctx获取事务连接;fn返回error时回滚,否则提交
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
