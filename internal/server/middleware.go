package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	obscontext "github.com/smallbiznis/invoicekit/internal/observability/context"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderAdminToken = "X-Admin-Token"
	contextUserIDKey = "user_id"
)

// UserRequired reads the caller identity set by the upstream auth proxy.
func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func AdminTokenRequired(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader(HeaderAdminToken))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

// tagKind records the document kind on the request context for logs and spans.
func tagKind(c *gin.Context, kind invoicedomain.Kind) {
	c.Request = c.Request.WithContext(obscontext.WithDocumentKind(c.Request.Context(), string(kind)))
}
