package loan

import (
	"context"
	"time"
)

// 借阅事件类型(同时作为消息routing key)
const (
	EventCreated  = "loan.created"
	EventReturned = "loan.returned"
)

// Event 借阅领域事件
// 在事务提交后发布,发布失败不影响借出/归还结果
type Event struct {
	Type           string     `json:"type"`
	LoanID         uint       `json:"loan_id"`
	BookID         uint       `json:"book_id"`
	HolderID       uint       `json:"holder_id"`
	ReceiverCedula string     `json:"receiver_cedula"`
	OccurredAt     time.Time  `json:"occurred_at"`
	BookRating     *int       `json:"book_rating,omitempty"`
	ReceiverRating *int       `json:"receiver_rating,omitempty"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
}

// CreatedEvent 借出事件
func CreatedEvent(l *Loan) Event {
	return Event{
		Type:           EventCreated,
		LoanID:         l.ID,
		BookID:         l.BookID,
		HolderID:       l.HolderID,
		ReceiverCedula: l.Receiver.Cedula,
		OccurredAt:     l.ApprovedAt,
	}
}

// ReturnedEvent 归还事件
func ReturnedEvent(l *Loan) Event {
	e := Event{
		Type:           EventReturned,
		LoanID:         l.ID,
		BookID:         l.BookID,
		HolderID:       l.HolderID,
		ReceiverCedula: l.Receiver.Cedula,
		BookRating:     l.BookRating,
		ReceiverRating: l.ReceiverRating,
		ReturnedAt:     l.ReturnedAt,
	}
	if l.ReturnedAt != nil {
		e.OccurredAt = *l.ReturnedAt
	}
	return e
}

// EventPublisher 借阅事件发布接口
// 实现在infrastructure/events
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}
