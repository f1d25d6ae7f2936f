package mysql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/library/pkg/logger"
)

func captureGormLogger(level gormlogger.LogLevel) (*slogGormLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &slogGormLogger{
		level: level,
		slow:  slowQueryThreshold,
		base:  logger.NewWithWriter(logger.Config{Level: "debug", Format: "json"}, &buf),
	}, &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func sqlOf(s string) func() (string, int64) {
	return func() (string, int64) { return s, 1 }
}

func TestGormLoggerWarnLevel(t *testing.T) {
	l, buf := captureGormLogger(gormlogger.Warn)
	ctx := logger.WithRequestID(context.Background(), "req-9")

	l.Trace(ctx, time.Now(), sqlOf("SELECT 1"), nil)
	l.Trace(ctx, time.Now(), sqlOf("SELECT * FROM books WHERE id = 9"), gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), sqlOf("SELECT SLEEP(1)"), nil)
	l.Trace(ctx, time.Now(), sqlOf("INSERT INTO books"), errors.New("Error 1062: Duplicate entry"))

	recs := records(t, buf)
	require.Len(t, recs, 2, "普通SQL与记录不存在不输出")

	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "慢查询", recs[0]["msg"])
	assert.Equal(t, "SELECT SLEEP(1)", recs[0]["sql"])
	assert.Equal(t, "req-9", recs[0]["request_id"])

	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "INSERT INTO books", recs[1]["sql"])
	assert.Contains(t, recs[1]["error"], "Duplicate entry")
}

func TestGormLoggerInfoLevelLogsEverySQL(t *testing.T) {
	l, buf := captureGormLogger(gormlogger.Warn)
	debug := l.LogMode(gormlogger.Info)

	debug.Trace(context.Background(), time.Now(), sqlOf("SELECT 1"), nil)
	debug.Info(context.Background(), "migrated %d tables", 6)

	recs := records(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "SELECT 1", recs[0]["sql"])
	assert.Equal(t, "migrated 6 tables", recs[1]["msg"])
	assert.Equal(t, gormlogger.Warn, l.level, "LogMode返回副本")
}

func TestGormLoggerSilent(t *testing.T) {
	l, buf := captureGormLogger(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), sqlOf("INSERT"), errors.New("boom"))
	l.Error(context.Background(), "boom")
	assert.Empty(t, buf.String())
}
