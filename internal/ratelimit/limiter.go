// Package ratelimit throttles outbound mail per user.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const keyMailSend = "ratelimit:mail:%s"

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a user may send another message now.
type Limiter interface {
	AllowMail(ctx context.Context, userID string) (*Result, error)
}

// Policy is a refill rate per minute and a burst size. A zero rate disables limiting.
type Policy struct {
	PerMinute float64
	Burst     int
}

func (p Policy) enabled() bool { return p.PerMinute > 0 && p.Burst > 0 }

func (p Policy) perSecond() float64 { return p.PerMinute / 60 }

// RedisLimiter shares buckets through redis.
type RedisLimiter struct {
	bucket *TokenBucket
	policy Policy
}

func NewRedisLimiter(bucket *TokenBucket, policy Policy) *RedisLimiter {
	return &RedisLimiter{bucket: bucket, policy: policy}
}

func (l *RedisLimiter) AllowMail(ctx context.Context, userID string) (*Result, error) {
	if !l.policy.enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyMailSend, strings.TrimSpace(userID))
	return l.bucket.Allow(ctx, key, l.policy.perSecond(), l.policy.Burst)
}

// MemoryLimiter keeps one x/time/rate limiter per user in process.
type MemoryLimiter struct {
	policy Policy

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{policy: policy, limiters: make(map[string]*rate.Limiter)}
}

func (l *MemoryLimiter) AllowMail(_ context.Context, userID string) (*Result, error) {
	if !l.policy.enabled() {
		return &Result{Allowed: true}, nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.policy.perSecond()), l.policy.Burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()

	now := time.Now()
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &Result{Limit: l.policy.Burst, RetryAfter: delay}, nil
	}
	return &Result{
		Allowed:   true,
		Limit:     l.policy.Burst,
		Remaining: int(lim.TokensAt(now)),
	}, nil
}
