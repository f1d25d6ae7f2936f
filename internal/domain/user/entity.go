package user

import (
	"strings"
	"time"
)

// User 图书馆系统账号
// 账号是办理借阅的操作人，实际取书的借书人记在借阅上（loan.Receiver）
// IsStaff为馆员：可以管理目录、归还任何人办理的借阅、查看全部借阅
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	IsStaff   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建普通账号，hashedPassword必须已经过bcrypt
func NewUser(email, hashedPassword, nickname string) *User {
	now := time.Now()
	return &User{
		Email:     NormalizeEmail(email),
		Password:  hashedPassword,
		Nickname:  strings.TrimSpace(nickname),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail 去空白并转小写，注册和登录都按此形式查找
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName 借阅记录、日志中展示的操作人名称
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Email
}
