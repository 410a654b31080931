package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	obscontext "github.com/smallbiznis/invoicekit/internal/observability/context"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/v1/documents/export"),
		attribute.String("bill_to.email", "ap@acme.test"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorFlattensChain(t *testing.T) {
	base := errors.New("root")
	err := SafeError(fmt.Errorf("wrap: %w", base))
	assert.EqualError(t, err, "wrap: root")
	assert.False(t, errors.Is(err, base))
	assert.Nil(t, SafeError(nil))
}

func TestGinMiddlewareRecordsRouteSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/v1/templates", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/v1/templates", spans[0].Name())
}

func TestGinMiddlewareTagsKindAndErrorType(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(WithErrorClassifier(func(error) (string, string) { return "quota_exceeded", "Payment Required" })))
	r.POST("/api/documents", func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithDocumentKind(c.Request.Context(), "receipt"))
		_ = c.Error(errors.New("over quota"))
		c.Status(http.StatusPaymentRequired)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/documents", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "receipt", attrs["document.kind"].AsString())
	assert.Equal(t, "quota_exceeded", attrs["error.type"].AsString())
	assert.Equal(t, int64(http.StatusPaymentRequired), attrs["http.status_code"].AsInt64())
	assert.NotEqual(t, "Error", spans[0].Status().Code.String())
}
