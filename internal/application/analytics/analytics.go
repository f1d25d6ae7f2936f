// Package analytics 访问事件记录与月度看板
package analytics

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
)

// EventRecorder 同步写入访问事件
// 写入失败只记录日志和指标,调用方的请求照常完成
type EventRecorder struct {
	repo analytics.Repository
	now  func() time.Time
}

// NewEventRecorder 创建事件记录器
func NewEventRecorder(repo analytics.Repository) *EventRecorder {
	return &EventRecorder{repo: repo, now: time.Now}
}

// Record 记录一次事件,userID、bookID为0表示没有
func (r *EventRecorder) Record(ctx context.Context, t analytics.EventType, userID, bookID uint) {
	result := "success"
	if err := r.repo.Create(ctx, analytics.NewEvent(t, userID, bookID, r.now())); err != nil {
		result = "failure"
		logger.FromContext(ctx).WarnContext(ctx, "记录访问事件失败",
			"type", string(t), "user_id", userID, "book_id", bookID, "error", err)
	}
	metrics.IncCounterVec(metrics.AnalyticsEventsTotal, map[string]string{"type": string(t), "result": result})
}

// Dashboard 看板数据,各序列与Labels一一对应
type Dashboard struct {
	Labels []string `json:"labels"`
	Views  []int64  `json:"views"`
	Adds   []int64  `json:"adds"`
	PDFs   []int64  `json:"pdfs"`
	Logins []int64  `json:"logins"`
}

// DashboardUseCase 最近12个月的访问统计
type DashboardUseCase struct {
	repo analytics.Repository
	now  func() time.Time
}

// NewDashboardUseCase 创建看板用例
func NewDashboardUseCase(repo analytics.Repository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// Execute 按月汇总窗口内的事件
func (uc *DashboardUseCase) Execute(ctx context.Context) (*Dashboard, error) {
	today := uc.now()
	from := analytics.WindowStart(today)

	counts, err := uc.repo.CountByMonth(ctx, from)
	if err != nil {
		return nil, err
	}

	s := analytics.BuildSeries(analytics.Months(from, today), counts)
	return &Dashboard{
		Labels: s.Labels,
		Views:  s.Counts[analytics.EventView],
		Adds:   s.Counts[analytics.EventAdd],
		PDFs:   s.Counts[analytics.EventPDF],
		Logins: s.Counts[analytics.EventLogin],
	}, nil
}
