package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func traceFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel, "original is unchanged")
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		begin   time.Time
		err     error
		message string
	}{
		{"query at info", gormlogger.Info, time.Now(), nil, "SQL Query"},
		{"error", gormlogger.Error, time.Now(), errors.New("syntax error"), "SQL Error"},
		{"slow query", gormlogger.Warn, time.Now().Add(-time.Second), nil, "SQL Slow Query"},
		{"record not found is quiet", gormlogger.Info, time.Now(), gormlogger.ErrRecordNotFound, "SQL Query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level)

			gl.Trace(ctx, tt.begin, traceFn("SELECT * FROM items", 3), tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, "SELECT * FROM items", entries[0].ContextMap()["sql"])
			assert.Equal(t, "gorm", entries[0].LoggerName)
		})
	}

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent)
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("zero threshold disables slow logging", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(0))
		gl.Trace(ctx, time.Now().Add(-time.Hour), traceFn("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())
	})

	t.Run("request id is attached", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)
		reqCtx, _ := WithRequestID(ctx, zap.NewNop(), "req-7")
		gl.Trace(reqCtx, time.Now(), traceFn("SELECT 1", 1), nil)
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "req-7", recorded.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)

	gl.Info(context.Background(), "migrated %d tables", 5)
	gl.Warn(context.Background(), "deprecated %s", "option")
	gl.Error(context.Background(), "failed %s", "badly")

	entries := recorded.All()
	require.Len(t, entries, 2, "info is below warn")
	assert.Equal(t, "deprecated option", entries[0].Message)
	assert.Equal(t, "failed badly", entries[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
