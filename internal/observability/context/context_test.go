package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureRequestIDKeepsExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	got, id := EnsureRequestID(ctx)
	assert.Equal(t, "req-1", id)
	assert.Equal(t, "req-1", RequestIDFromContext(got))
}

func TestEnsureRequestIDGenerates(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	assert.Len(t, id, 26)
	assert.Equal(t, id, RequestIDFromContext(ctx))
}

func TestBlankUserIDIsIgnored(t *testing.T) {
	ctx := WithUserID(context.Background(), "  ")
	assert.Empty(t, UserIDFromContext(ctx))
	assert.Equal(t, "u1", UserIDFromContext(WithUserID(ctx, "u1")))
}

func TestDocumentKindIsNormalised(t *testing.T) {
	ctx := WithDocumentKind(context.Background(), " Receipt ")
	assert.Equal(t, "receipt", DocumentKindFromContext(ctx))
	assert.Empty(t, DocumentKindFromContext(WithDocumentKind(context.Background(), "  ")))
}
