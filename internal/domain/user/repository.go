package user

import (
	"context"
)

// Repository 用户仓储接口
// 实现在infrastructure/persistence/mysql
type Repository interface {
	// Create 创建用户
	// 注意：如果邮箱已存在，应返回errors.ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找用户
	// 如果不存在，返回errors.ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 根据邮箱查找用户
	// 如果不存在，返回errors.ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// SetStaff 授予或撤销馆员身份
	SetStaff(ctx context.Context, id uint, staff bool) error
}
