// Package context carries request-scoped identifiers used by logs and spans.
package context

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

type requestIDKey struct{}
type userIDKey struct{}
type documentKindKey struct{}

// WithRequestID stores id on ctx. Blank ids are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// EnsureRequestID returns ctx carrying a request id, generating a ULID when none is set.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}

func NewRequestID() string {
	return ulid.Make().String()
}

func WithUserID(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// WithDocumentKind records which document family the request works on.
func WithDocumentKind(ctx context.Context, kind string) context.Context {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKindKey{}, kind)
}

func DocumentKindFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	kind, _ := ctx.Value(documentKindKey{}).(string)
	return kind
}
