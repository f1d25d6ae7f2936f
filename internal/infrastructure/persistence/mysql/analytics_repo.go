package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/analytics"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// AnalyticsEventModel 访问事件
// 只追加不修改,(event_type, timestamp)联合索引支撑按月分组
type AnalyticsEventModel struct {
	ID        uint      `gorm:"primaryKey"`
	EventType string    `gorm:"index:idx_type_time;size:20;not null;comment:事件类型(view/add/pdf/login)"`
	BookID    *uint     `gorm:"index;comment:图书ID"`
	UserID    *uint     `gorm:"index;comment:用户ID"`
	Timestamp time.Time `gorm:"index:idx_type_time;not null;comment:发生时间"`
}

// TableName 指定表名
func (AnalyticsEventModel) TableName() string {
	return "analytics_events"
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建访问事件仓储
func NewAnalyticsRepository(db *gorm.DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, e *analytics.Event) error {
	model := &AnalyticsEventModel{
		EventType: string(e.Type),
		BookID:    e.BookID,
		UserID:    e.UserID,
		Timestamp: e.Timestamp,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入访问事件失败")
	}
	e.ID = model.ID
	return nil
}

// monthlyCountQuery 按类型和月份分组计数
func monthlyCountQuery(db *gorm.DB, since time.Time) *gorm.DB {
	return db.Model(&AnalyticsEventModel{}).
		Select("event_type AS type, DATE_FORMAT(timestamp, '%Y-%m') AS month, COUNT(*) AS count").
		Where("timestamp >= ?", since).
		Group("event_type, month").
		Order("month ASC")
}

func (r *analyticsRepository) CountByMonth(ctx context.Context, since time.Time) ([]analytics.MonthlyCount, error) {
	var rows []analytics.MonthlyCount
	if err := monthlyCountQuery(conn(ctx, r.db), since).Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计访问事件失败")
	}
	return rows, nil
}
