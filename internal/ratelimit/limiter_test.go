package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBurstThenDeny(t *testing.T) {
	l := NewMemoryLimiter(Policy{PerMinute: 1, Burst: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.AllowMail(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.AllowMail(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	res, err = l.AllowMail(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "buckets are per user")
}

func TestDisabledPolicyAlwaysAllows(t *testing.T) {
	l := NewMemoryLimiter(Policy{})
	for i := 0; i < 50; i++ {
		res, err := l.AllowMail(context.Background(), "u1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestRefillWait(t *testing.T) {
	assert.Equal(t, time.Duration(0), refillWait(1.5, 1))
	assert.Equal(t, 500*time.Millisecond, refillWait(0.5, 1))
	assert.Equal(t, 2*time.Second, defaultBucketTTL(1, 1))
}
