package loan

import (
	"time"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
)

const timeLayout = "2006-01-02 15:04:05"

// LoanView 借阅记录DTO
type LoanView struct {
	ID                uint   `json:"id"`
	BookID            uint   `json:"book_id"`
	Cota              string `json:"cota,omitempty"`
	Title             string `json:"title,omitempty"`
	HolderID          uint   `json:"holder_id"`
	Quantity          int    `json:"quantity"`
	ReceiverCedula    string `json:"receiver_cedula"`
	ReceiverFirstName string `json:"receiver_first_name"`
	ReceiverLastName  string `json:"receiver_last_name"`
	Status            string `json:"status"`
	StatusText        string `json:"status_text"`
	ApprovedAt        string `json:"approved_at,omitempty"`
	ReturnedAt        string `json:"returned_at,omitempty"`
	ReturnReport      string `json:"return_report,omitempty"`
	BookRating        *int   `json:"return_book_rating"`
	ReceiverRating    *int   `json:"return_receiver_rating"`
}

// NewLoanView 领域实体 → DTO,b可以为nil
func NewLoanView(l *loan.Loan, b *book.Book) LoanView {
	v := LoanView{
		ID:                l.ID,
		BookID:            l.BookID,
		HolderID:          l.HolderID,
		Quantity:          l.Quantity,
		ReceiverCedula:    l.Receiver.Cedula,
		ReceiverFirstName: l.Receiver.FirstName,
		ReceiverLastName:  l.Receiver.LastName,
		Status:            string(l.Status),
		StatusText:        l.Status.String(),
		ApprovedAt:        formatTime(l.ApprovedAt),
		ReturnReport:      l.ReturnReport,
		BookRating:        l.BookRating,
		ReceiverRating:    l.ReceiverRating,
	}
	if l.ReturnedAt != nil {
		v.ReturnedAt = formatTime(*l.ReturnedAt)
	}
	if b != nil {
		v.Cota = b.Cota
		v.Title = b.Title
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

// PageResult 分页结果
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// normalizePage 页码从1开始,pageSize缺省时使用def,最大100
func normalizePage(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
