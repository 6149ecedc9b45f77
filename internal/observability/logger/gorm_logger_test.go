package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/NewAcropolis/api-sub000/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerSkipsExpectedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	errDup := errors.New("UNIQUE constraint failed: orders.txn_id")
	l := NewGormLogger(GormLoggerConfig{
		Level:    gormlogger.Warn,
		Expected: func(err error) bool { return errors.Is(err, errDup) },
	})

	sql := func() (string, int64) { return "INSERT INTO orders (txn_id) VALUES ('A')", 0 }
	l.Trace(context.Background(), time.Now(), sql, errDup)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), sql, errors.New("disk full"))
	assert.Equal(t, 1, logs.FilterMessage("gorm.query").Len())
	assert.Equal(t, "INSERT", logs.All()[0].ContextMap()["operation"])
}

func TestGormLoggerSlowQueryCarriesTxnID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: 10 * time.Millisecond})
	ctx := obscontext.WithTxnID(context.Background(), "TXN-9")
	sql := func() (string, int64) { return `UPDATE "orders" SET delivery_balance = delivery_balance + ?`, 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	l.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "TXN-9", fields["txn_id"])
	assert.Equal(t, "orders", fields["table"])
	assert.Equal(t, int64(10), fields["slow_threshold_ms"])
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "UPDATE", operationFromSQL("update tickets set status = 'used'"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "tickets", tableFromSQL("update tickets set status = 'used'"))
	assert.Equal(t, "orders", tableFromSQL("INSERT INTO `orders` (txn_id) VALUES (?)"))
	assert.Equal(t, "books", tableFromSQL(`SELECT * FROM "books" WHERE id = ?`))
	assert.Equal(t, "", tableFromSQL("BEGIN"))
}
