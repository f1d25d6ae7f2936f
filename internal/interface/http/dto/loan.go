package dto

import (
	"bytes"
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/report"
)

// dateLayout 查询参数中的日期格式
const dateLayout = "2006-01-02"

// CheckoutRequest 借出请求
// 借书人字段由领域层统一校验,错误按字段返回
type CheckoutRequest struct {
	ReceiverCedula    string `json:"receiver_cedula" form:"receiver_cedula" example:"12345678"`
	ReceiverFirstName string `json:"receiver_first_name" form:"receiver_first_name" example:"Ana"`
	ReceiverLastName  string `json:"receiver_last_name" form:"receiver_last_name" example:"Pérez"`
}

// RawRating 原始评分
// JSON中可以是数字或字符串,不合法的值在领域层按未评分处理
type RawRating string

// UnmarshalJSON 接受数字、字符串与null
func (r *RawRating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
	case len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"':
		*r = RawRating(data[1 : len(data)-1])
	default:
		*r = RawRating(data)
	}
	return nil
}

// ReturnRequest 归还请求
type ReturnRequest struct {
	Report         string    `json:"report" form:"report" binding:"max=2000" example:"封面轻微磨损"`
	BookRating     RawRating `json:"book_rating" form:"book_rating" swaggertype:"string" example:"4"`
	ReceiverRating RawRating `json:"receiver_rating" form:"receiver_rating" swaggertype:"string" example:"5"`
}

// PageRequest 分页参数
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"10"`
}

// ReturnedLoansRequest 归还历史查询
// 日期格式为YYYY-MM-DD,无法解析时忽略
type ReturnedLoansRequest struct {
	PageRequest
	Keyword   string `form:"q" binding:"max=100" example:"fisiología"`
	StartDate string `form:"start_date" example:"2024-01-01"`
	EndDate   string `form:"end_date" example:"2024-12-31"`
}

// ReportRequest 统计查询
// min_score为1-5,其他值忽略
type ReportRequest struct {
	PageRequest
	StartDate string `form:"start_date" example:"2024-01-01"`
	EndDate   string `form:"end_date" example:"2024-12-31"`
	MinScore  string `form:"min_score" example:"3"`
	Q         string `form:"q" binding:"max=100" example:"pérez"`
}

// Filter 转换为统计过滤条件
func (r *ReportRequest) Filter() report.Filter {
	return report.Filter{
		From:     ParseDay(r.StartDate),
		To:       ParseDay(r.EndDate),
		MinScore: loan.ParseRating(r.MinScore),
		Query:    strings.TrimSpace(r.Q),
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}

// ParseDay 解析YYYY-MM-DD(本地时区),空白或格式错误返回nil
func ParseDay(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil
	}
	return &t
}
