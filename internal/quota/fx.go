package quota

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/inflight"
	"github.com/smallbiznis/invoicekit/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
)

var Module = fx.Module("quota",
	fx.Provide(NewGuard),
	fx.Provide(NewPolicyHolder),
	fx.Provide(NewGateFromParams),
)

type GuardParams struct {
	fx.In

	Log   *zap.Logger
	Redis redis.UniversalClient `optional:"true"`
}

// NewGuard shares in-flight leases through redis when it is configured.
func NewGuard(p GuardParams) inflight.Guard {
	if p.Redis != nil {
		return inflight.NewRedisGuard(p.Redis, 0, p.Log)
	}
	return inflight.NewMemoryGuard()
}

func NewPolicyHolder(log *zap.Logger) (*config.QuotaPolicyHolder, error) {
	return config.NewQuotaPolicyHolder(log)
}

type GateParams struct {
	fx.In

	Cfg     config.Config
	Usage   subscriptiondomain.Service
	Policy  *config.QuotaPolicyHolder
	Guard   inflight.Guard
	Metrics *metrics.Metrics `optional:"true"`
	Log     *zap.Logger
}

func NewGateFromParams(p GateParams) *Gate {
	return NewGate(p.Usage, Options{
		Policy:  p.Policy,
		Guard:   p.Guard,
		Calls:   external.PolicyFrom(p.Cfg),
		Metrics: p.Metrics,
		Log:     p.Log,
	})
}
