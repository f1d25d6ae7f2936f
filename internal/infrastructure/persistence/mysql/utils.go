package mysql

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
// MySQL错误码:
// - 1062: Duplicate entry 'xxx' for key 'yyy'
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	// GORM v2的错误判断
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 兼容检查:错误信息包含"Duplicate entry"
	return strings.Contains(err.Error(), "Duplicate entry")
}

// paginate 追加LIMIT/OFFSET,页码从1开始
func paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return q.Limit(pageSize).Offset((page - 1) * pageSize)
}

// dayRange 归还日期闭区间 → [from 00:00, to+1天 00:00)
func dayRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", startOfDay(*from))
	}
	if to != nil {
		q = q.Where(column+" < ?", startOfDay(*to).AddDate(0, 0, 1))
	}
	return q
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义LIKE通配符
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// likePattern 转义后包裹%,用于包含匹配
func likePattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
