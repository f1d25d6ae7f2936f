package loan

import (
	"strconv"
	"strings"
	"time"
)

// Status 借阅状态
// 状态流转: active → returned (终态)
type Status string

const (
	StatusActive   Status = "active"   // 借出中
	StatusReturned Status = "returned" // 已归还
)

// String 返回状态的中文描述
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "借出中"
	case StatusReturned:
		return "已归还"
	default:
		return "未知状态"
	}
}

const (
	// MinRating 评分下限
	MinRating = 1
	// MaxRating 评分上限
	MaxRating = 5
)

// Loan 借阅记录实体(聚合根)
// DDD设计说明:
// 1. 每条借阅对应一本书的一个副本(Quantity固定为1)
// 2. Holder是办理借阅的登录用户,Receiver是实际取书的外部人员
// 3. ReturnedAt当且仅当Status=returned时有值
// 4. 评分为空表示未评分,有值时一定在[1,5]区间
type Loan struct {
	ID             uint
	BookID         uint
	HolderID       uint // 办理借阅的用户ID
	Quantity       int
	Receiver       Receiver
	Status         Status
	ApprovedAt     time.Time
	ReturnedAt     *time.Time
	ReturnReport   string
	BookRating     *int // 图书状况评分
	ReceiverRating *int // 借书人表现评分
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewLoan 创建借出中的借阅记录(工厂方法)
// receiver需调用方先完成校验
func NewLoan(bookID, holderID uint, receiver Receiver, now time.Time) *Loan {
	return &Loan{
		BookID:     bookID,
		HolderID:   holderID,
		Quantity:   1,
		Receiver:   receiver,
		Status:     StatusActive,
		ApprovedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive 是否借出中
func (l *Loan) IsActive() bool {
	return l.Status == StatusActive
}

// IsHeldBy 是否由指定用户办理
func (l *Loan) IsHeldBy(userID uint) bool {
	return l.HolderID == userID
}

// CanBeReturnedBy 检查操作人是否有权归还
// 业务规则:办理人本人或管理员
func (l *Loan) CanBeReturnedBy(actor Actor) bool {
	return actor.IsStaff || l.IsHeldBy(actor.UserID)
}

// ReturnInput 归还时附带的信息
// 评分为nil表示未提供或不合法
type ReturnInput struct {
	Report         string
	BookRating     *int
	ReceiverRating *int
}

// Return 归还(领域行为)
// 业务规则:
// 1. 只有借出中的记录可以归还,重复归还返回ErrLoanAlreadyReturned且不做任何修改
// 2. returned_at为实际完成时间
// 3. 报告为空白时视为未提供
func (l *Loan) Return(now time.Time, in ReturnInput) error {
	if l.Status == StatusReturned {
		return ErrLoanAlreadyReturned
	}
	if l.Status != StatusActive {
		return ErrInvalidLoanStatus
	}

	l.Status = StatusReturned
	l.ReturnedAt = &now
	if report := strings.TrimSpace(in.Report); report != "" {
		l.ReturnReport = report
	}
	if validRating(in.BookRating) {
		l.BookRating = in.BookRating
	}
	if validRating(in.ReceiverRating) {
		l.ReceiverRating = in.ReceiverRating
	}
	l.UpdatedAt = now
	return nil
}

// ParseRating 解析评分
// 宽松策略:非整数或超出[1,5]的值视为未评分,不报错
func ParseRating(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < MinRating || v > MaxRating {
		return nil
	}
	return &v
}

func validRating(r *int) bool {
	return r != nil && *r >= MinRating && *r <= MaxRating
}

// Available 计算可借数量
// 可借 = 馆藏总数 - 借出中数量;目录缩减副本时可能为负,调用方按<=0处理
func Available(total, onLoan int) int {
	return total - onLoan
}

// Actor 当前操作人(由认证层提供)
type Actor struct {
	UserID  uint
	Name    string
	IsStaff bool
}
