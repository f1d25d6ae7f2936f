// Package analytics 访问统计
// 记录图书浏览、编目上架、PDF导出、登录四类事件,按月汇总给管理看板使用
package analytics

import (
	"context"
	"time"
)

// EventType 事件类型
type EventType string

const (
	EventView  EventType = "view"  // 查看图书详情
	EventAdd   EventType = "add"   // 编目上架
	EventPDF   EventType = "pdf"   // 导出图书卡片PDF
	EventLogin EventType = "login" // 登录
)

// EventTypes 看板输出的全部事件类型,顺序即输出顺序
var EventTypes = []EventType{EventView, EventAdd, EventPDF, EventLogin}

// Event 一次访问事件
// BookID、UserID可为空:匿名浏览没有用户,登录没有图书
type Event struct {
	ID        uint
	Type      EventType
	BookID    *uint
	UserID    *uint
	Timestamp time.Time
}

// NewEvent 构造事件,ID为0视为未提供
func NewEvent(t EventType, userID, bookID uint, at time.Time) *Event {
	e := &Event{Type: t, Timestamp: at}
	if userID != 0 {
		e.UserID = &userID
	}
	if bookID != 0 {
		e.BookID = &bookID
	}
	return e
}

// MonthlyCount 某类事件在某月的数量,Month格式为2006-01
type MonthlyCount struct {
	Type  EventType
	Month string
	Count int64
}

// Repository 事件仓储
type Repository interface {
	// Create 写入一条事件
	Create(ctx context.Context, e *Event) error

	// CountByMonth 按类型和月份统计since(含)之后的事件
	CountByMonth(ctx context.Context, since time.Time) ([]MonthlyCount, error)
}

// Recorder 事件记录器
// 记录失败不影响业务流程,所以没有返回值
type Recorder interface {
	Record(ctx context.Context, t EventType, userID, bookID uint)
}

const monthLayout = "2006-01"

// WindowStart 看板统计窗口的起始日
// 本月1日往前推365天,再取那个月的1日,窗口通常覆盖13个自然月
func WindowStart(today time.Time) time.Time {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	back := first.AddDate(0, 0, -365)
	return time.Date(back.Year(), back.Month(), 1, 0, 0, 0, 0, today.Location())
}

// Months 从from所在月到today所在月的月份标签,升序
func Months(from, today time.Time) []string {
	var months []string
	end := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location()); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(monthLayout))
	}
	return months
}

// Series 按月份对齐的各类事件数量
// Counts[t][i]对应Labels[i],没有事件的月份为0,窗口外的月份被忽略
type Series struct {
	Labels []string
	Counts map[EventType][]int64
}

// BuildSeries 把分组统计结果对齐到月份标签上
func BuildSeries(months []string, counts []MonthlyCount) Series {
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m] = i
	}

	s := Series{Labels: months, Counts: make(map[EventType][]int64, len(EventTypes))}
	for _, t := range EventTypes {
		s.Counts[t] = make([]int64, len(months))
	}
	for _, c := range counts {
		i, ok := index[c.Month]
		if !ok {
			continue
		}
		if row, ok := s.Counts[c.Type]; ok {
			row[i] += c.Count
		}
	}
	return s
}
