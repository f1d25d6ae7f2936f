package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

const (
	// DefaultCost 生产环境bcrypt cost
	DefaultCost = 12

	minPassword = 8
	maxPassword = 20
	minNickname = 2
	maxNickname = 50
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
	hasLetter    = regexp.MustCompile(`\pL`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

// Service 账号领域服务：凭证规则与密码哈希
// 邮箱唯一性由数据库唯一索引保证
type Service interface {
	// Register 校验凭证后创建普通账号
	Register(ctx context.Context, email, password, nickname string) (*User, error)

	// Authenticate 按邮箱和密码认证
	// 邮箱不存在与密码错误都返回ErrInvalidPassword
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
	cost int
}

// NewService 创建账号服务
func NewService(repo Repository) Service {
	return NewServiceWithCost(repo, DefaultCost)
}

// NewServiceWithCost 指定bcrypt cost（测试使用bcrypt.MinCost）
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, cost: cost}
}

// Register 注册
// 1. 邮箱规范化后校验格式
// 2. 密码8-20位，至少一个字母和一个数字
// 3. 昵称去空白后2-50个字符（按rune计，支持西语重音字母）
// 4. 哈希后持久化，重复邮箱由Repository转换为ErrEmailDuplicate
func (s *service) Register(ctx context.Context, email, password, nickname string) (*User, error) {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(nickname)); n < minNickname || n > maxNickname {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "昵称长度应为2-50个字符")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	u := NewUser(email, string(hashed), nickname)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 认证
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return nil, apperrors.ErrInvalidPassword
	case err != nil:
		return nil, apperrors.Wrap(err, "密码验证失败")
	}
	return u, nil
}

func checkPassword(password string) error {
	if len(password) < minPassword || len(password) > maxPassword {
		return apperrors.ErrWeakPassword
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return apperrors.ErrWeakPassword
	}
	return nil
}
