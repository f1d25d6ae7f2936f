package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/analytics"
)

func TestMonthlyCountQuery(t *testing.T) {
	db := dryRunDB(t)
	since := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	stmt := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []analytics.MonthlyCount
		return monthlyCountQuery(tx, since).Find(&rows)
	})

	assert.Contains(t, stmt, "FROM `analytics_events`")
	assert.Contains(t, stmt, "DATE_FORMAT(timestamp, '%Y-%m') AS month")
	assert.Contains(t, stmt, "timestamp >= '2025-10-01 00:00:00'")
	assert.Contains(t, stmt, "GROUP BY event_type, month")
}
