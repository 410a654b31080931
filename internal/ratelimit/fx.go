package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/smallbiznis/invoicekit/internal/config"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
)

type Params struct {
	fx.In

	Cfg   config.Config
	Redis redis.UniversalClient `optional:"true"`
}

// NewLimiter prefers the shared redis bucket and falls back to process-local limits.
func NewLimiter(p Params) Limiter {
	policy := Policy{PerMinute: p.Cfg.Mail.RatePerMinute, Burst: p.Cfg.Mail.RateBurst}
	if p.Redis != nil {
		return NewRedisLimiter(NewTokenBucket(p.Redis), policy)
	}
	return NewMemoryLimiter(policy)
}
