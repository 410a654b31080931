package inflight

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// DefaultLeaseTTL bounds how long a crashed holder can block a key.
const DefaultLeaseTTL = 30 * time.Second

// RedisGuard shares leases across instances with SET NX and a token-checked release.
type RedisGuard struct {
	client redis.Cmdable
	script *redis.Script
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisGuard(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisGuard{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		log:    log.Named("inflight"),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if g == nil || g.client == nil {
		return nil, errors.New("lock client not configured")
	}
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "redis", Op: "lock", Cause: err}
	}
	if !ok {
		return nil, domain.ErrActionInFlight
	}

	return func() {
		// The caller's context may already be cancelled by the time it releases.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := g.script.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
			g.log.Warn("failed to release lease", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
