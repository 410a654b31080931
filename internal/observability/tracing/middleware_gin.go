package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	obscontext "github.com/smallbiznis/invoicekit/internal/observability/context"
)

type middlewareOptions struct {
	classify func(err error) (string, string)
}

type MiddlewareOption func(*middlewareOptions)

// WithErrorClassifier tags failed requests with the error type the handler chain produced.
func WithErrorClassifier(fn func(err error) (string, string)) MiddlewareOption {
	return func(o *middlewareOptions) { o.classify = fn }
}

// GinMiddleware opens one server span per request. The span is renamed after
// routing and tagged with the document kind the handler worked on.
func GinMiddleware(opts ...MiddlewareOption) gin.HandlerFunc {
	var o middlewareOptions
	for _, opt := range opts {
		opt(&o)
	}
	tracer := otel.Tracer("invoicekit/http")

	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx = withRequestBaggage(ctx)
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		if id := obscontext.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		o.finish(c, span, method, time.Since(start))
	}
}

func (o middlewareOptions) finish(c *gin.Context, span trace.Span, method string, elapsed time.Duration) {
	defer span.End()

	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	status := c.Writer.Status()
	span.SetName("HTTP " + method + " " + route)

	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.Int64("http.server_duration_ms", elapsed.Milliseconds()),
	}
	if kind := obscontext.DocumentKindFromContext(c.Request.Context()); kind != "" {
		attrs = append(attrs, attribute.String("document.kind", kind))
	}

	lastErr := c.Errors.Last()
	if lastErr != nil && o.classify != nil {
		if errType, _ := o.classify(lastErr.Err); errType != "" {
			attrs = append(attrs, attribute.String("error.type", errType))
		}
	}
	span.SetAttributes(SafeAttributes(attrs...)...)

	if status < http.StatusInternalServerError {
		return
	}
	if lastErr != nil {
		if safeErr := SafeError(lastErr.Err); safeErr != nil {
			span.RecordError(safeErr)
		}
	}
	span.SetStatus(codes.Error, http.StatusText(status))
}

func withRequestBaggage(ctx context.Context) context.Context {
	id := obscontext.RequestIDFromContext(ctx)
	if id == "" {
		return ctx
	}
	member, err := baggage.NewMember("request_id", id)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
