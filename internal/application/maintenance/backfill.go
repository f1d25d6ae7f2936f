// Package maintenance 运维用例：历史借阅时间戳修复、馆员授权
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// BackfillOptions 修复选项
// Apply为false时只统计不修改
type BackfillOptions struct {
	Apply  bool
	UseNow bool // 仍缺失的时间戳用当前时间补齐
}

// BackfillReport 修复结果
type BackfillReport struct {
	Before               loan.MissingTimestamps
	ReturnedFromApproved int64
	ApprovedSetToNow     int64
	ReturnedSetToNow     int64
	After                loan.MissingTimestamps
}

// BackfillUseCase 借阅时间戳修复
type BackfillUseCase struct {
	txManager loan.TxManager
	repo      loan.MaintenanceRepository
	now       func() time.Time
}

// NewBackfillUseCase 创建修复用例
func NewBackfillUseCase(txManager loan.TxManager, repo loan.MaintenanceRepository) *BackfillUseCase {
	return &BackfillUseCase{txManager: txManager, repo: repo, now: time.Now}
}

// Execute 执行修复
// 1. 统计approved_at为空、以及已归还但returned_at为空的记录
// 2. Apply: 已归还缺returned_at的，用approved_at补齐
// 3. Apply+UseNow: 仍缺approved_at的设为当前时间，已归还仍缺returned_at的设为当前时间
// 每一步单独一个事务
func (uc *BackfillUseCase) Execute(ctx context.Context, opts BackfillOptions) (*BackfillReport, error) {
	before, err := uc.repo.CountMissingTimestamps(ctx)
	if err != nil {
		return nil, err
	}
	report := &BackfillReport{Before: before, After: before}
	slog.InfoContext(ctx, "缺失时间戳统计",
		"approved_at_null", before.ApprovedAt,
		"returned_at_null", before.ReturnedAt,
	)
	if !opts.Apply {
		slog.InfoContext(ctx, "预览模式，未做修改（使用--apply执行修复）")
		return report, nil
	}

	// 2. returned_at ← approved_at
	if err := uc.step(ctx, "returned_at取approved_at", &report.ReturnedFromApproved, uc.repo.FillReturnedFromApproved); err != nil {
		return report, err
	}

	// 3. 剩余的用当前时间
	if opts.UseNow {
		now := uc.now()
		if err := uc.step(ctx, "approved_at取当前时间", &report.ApprovedSetToNow, func(ctx context.Context) (int64, error) {
			return uc.repo.FillApprovedAt(ctx, now)
		}); err != nil {
			return report, err
		}
		if err := uc.step(ctx, "returned_at取当前时间", &report.ReturnedSetToNow, func(ctx context.Context) (int64, error) {
			return uc.repo.FillReturnedAt(ctx, now)
		}); err != nil {
			return report, err
		}
	}

	after, err := uc.repo.CountMissingTimestamps(ctx)
	if err != nil {
		return report, err
	}
	report.After = after
	slog.InfoContext(ctx, "修复完成",
		"approved_at_null", after.ApprovedAt,
		"returned_at_null", after.ReturnedAt,
	)
	return report, nil
}

func (uc *BackfillUseCase) step(ctx context.Context, name string, affected *int64, fn func(ctx context.Context) (int64, error)) error {
	err := uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			return err
		}
		*affected = n
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, "修复步骤失败: %s", name)
	}
	slog.InfoContext(ctx, "修复步骤完成", "step", name, "rows", *affected)
	return nil
}

// StaffUseCase 授予或撤销馆员身份
type StaffUseCase struct {
	userRepo user.Repository
}

// NewStaffUseCase 创建馆员授权用例
func NewStaffUseCase(userRepo user.Repository) *StaffUseCase {
	return &StaffUseCase{userRepo: userRepo}
}

// Execute 按邮箱设置馆员身份
// 新Token生效，已签发的Token在过期前仍携带旧身份
func (uc *StaffUseCase) Execute(ctx context.Context, email string, staff bool) (*user.User, error) {
	u, err := uc.userRepo.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.SetStaff(ctx, u.ID, staff); err != nil {
		return nil, err
	}
	u.IsStaff = staff
	slog.InfoContext(ctx, "馆员身份已更新", "user_id", u.ID, "email", u.Email, "is_staff", staff)
	return u, nil
}
