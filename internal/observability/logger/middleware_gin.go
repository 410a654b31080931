package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	obscontext "github.com/smallbiznis/invoicekit/internal/observability/context"
)

const requestIDHeader = "X-Request-Id"

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

// Client errors that signal a limit rather than a bad request.
var limitErrorTypes = map[string]struct{}{
	"quota_exceeded":   {},
	"action_in_flight": {},
	"rate_limited":     {},
}

// GinMiddleware assigns the request id and writes one http_request line per
// request. User and document kind come from the request context, so they are
// present once the handler chain has set them.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}

		var errorType string
		if lastErr := c.Errors.Last(); lastErr != nil {
			var errorCode string
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(lastErr.Err)
			}
			fields = append(fields, zap.String("error_type", errorType), zap.String("error_code", errorCode))
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		FromContext(c.Request.Context()).Log(requestLevel(route, status, errorType), "http_request", fields...)
	}
}

func requestIDFor(c *gin.Context) string {
	// Header lookup is canonicalised, so X-Request-ID matches too.
	id := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if id == "" {
		id = strings.TrimSpace(c.GetString("request_id"))
	}
	if id == "" {
		id = obscontext.NewRequestID()
	}
	c.Set("request_id", id)
	return id
}

func requestLevel(route string, status int, errorType string) zapcore.Level {
	switch {
	case strings.EqualFold(route, "/metrics") || strings.EqualFold(route, "/health"):
		return zap.DebugLevel
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case status >= http.StatusBadRequest:
		if _, ok := limitErrorTypes[errorType]; ok {
			return zap.WarnLevel
		}
	}
	return zap.InfoLevel
}
