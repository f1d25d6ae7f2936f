package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 账号仓储
// 邮箱由领域层规范化为小写后再读写
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := UserModel{
		Email:    u.Email,
		Password: u.Password,
		Nickname: u.Nickname,
		IsStaff:  u.IsStaff,
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建账号失败")
	}
	u.ID, u.CreatedAt, u.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, cond string, arg interface{}) (*user.User, error) {
	var m UserModel
	if err := conn(ctx, r.db).Where(cond, arg).Take(&m).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUserNotFound, "查询账号失败")
	}
	return m.toEntity(), nil
}

// SetStaff 授予或撤销馆员身份
// 值未变化时RowsAffected也为0，需要再确认账号存在
func (r *userRepository) SetStaff(ctx context.Context, id uint, staff bool) error {
	res := conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", id).Update("is_staff", staff)
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "更新馆员身份失败")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	_, err := r.FindByID(ctx, id)
	return err
}

func (m *UserModel) toEntity() *user.User {
	return &user.User{
		ID:        m.ID,
		Email:     m.Email,
		Password:  m.Password,
		Nickname:  m.Nickname,
		IsStaff:   m.IsStaff,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
