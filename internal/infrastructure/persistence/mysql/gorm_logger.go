package mysql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/library/pkg/logger"
)

// slowQueryThreshold 超过该耗时的SQL按慢查询记录
const slowQueryThreshold = 200 * time.Millisecond

// slogGormLogger 把GORM日志写入slog,SQL日志与业务日志一样带request_id/trace_id
// 1. Info级别输出全部SQL(仅debug模式)
// 2. Warn级别记录慢查询
// 3. Error级别记录执行失败的SQL,记录不存在不算失败
type slogGormLogger struct {
	level gormlogger.LogLevel
	slow  time.Duration
	base  *slog.Logger // 为nil时使用logger.FromContext
}

func newGormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return &slogGormLogger{level: level, slow: slowQueryThreshold}
}

func (l *slogGormLogger) out(ctx context.Context) *slog.Logger {
	if l.base != nil {
		return l.base
	}
	return logger.FromContext(ctx)
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.out(ctx).InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.out(ctx).WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.out(ctx).ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.out(ctx).ErrorContext(ctx, "SQL执行失败", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.out(ctx).WarnContext(ctx, "慢查询", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.out(ctx).DebugContext(ctx, "SQL", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
