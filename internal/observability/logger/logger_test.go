package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	obscontext "github.com/smallbiznis/invoicekit/internal/observability/context"
)

func TestOperationAndTableFromSQL(t *testing.T) {
	assert.Equal(t, "UPDATE", operationFromSQL("UPDATE subscriptions SET usage_count = usage_count + 1"))
	assert.Equal(t, "subscriptions", tableFromSQL("UPDATE subscriptions SET usage_count = usage_count + 1"))
	assert.Equal(t, "SELECT", operationFromSQL(`WITH x AS (SELECT 1) SELECT * FROM "invoices"`))
	assert.Equal(t, "invoices", tableFromSQL(`INSERT INTO "invoices" (id) VALUES (1)`))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestWithContextAddsRequestAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-7")
	ctx = obscontext.WithUserID(ctx, "u1")

	WithContext(ctx, zap.New(core)).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestGinMiddlewareEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = obscontext.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc", seen)
}

func TestGinMiddlewareLogsRequestContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "quota_exceeded", "Payment Required" },
	}))
	r.POST("/api/documents", func(c *gin.Context) {
		ctx := obscontext.WithUserID(c.Request.Context(), "u1")
		c.Request = c.Request.WithContext(obscontext.WithDocumentKind(ctx, "invoice"))
		_ = c.Error(errors.New("quota"))
		c.Status(http.StatusPaymentRequired)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/documents", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "invoice", fields["document_kind"])
	assert.Equal(t, "quota_exceeded", fields["error_type"])
	assert.NotEmpty(t, fields["request_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/metrics", http.StatusOK, ""))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/api/documents", http.StatusBadGateway, "external_service_failure"))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/documents/email", http.StatusTooManyRequests, "rate_limited"))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/api/documents", http.StatusBadRequest, "validation_error"))
}

func TestGormLoggerTagsQueriesWithRequestContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: 100 * time.Millisecond, IgnoreRecordNotFound: true})
	ctx := obscontext.WithDocumentKind(obscontext.WithUserID(context.Background(), "u1"), "receipt")
	query := func() (string, int64) { return `SELECT * FROM "invoices" WHERE user_id = ?`, 1 }

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), query, nil)

	entries := logs.FilterMessage("db.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "receipt", fields["document_kind"])
	assert.Equal(t, "invoices", fields["table"])
	assert.Equal(t, true, fields["slow"])
}
