package draft

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/format"
)

var Module = fx.Module("draft",
	fx.Provide(NewStore),
	fx.Provide(NewLifecycleAutosaver),
	fx.Provide(NewDraftService),
)

type StoreParams struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Redis redis.UniversalClient `optional:"true"`
}

// NewStore keeps drafts in redis when it is configured and in process otherwise.
func NewStore(p StoreParams) Store {
	if p.Redis != nil {
		return NewRedisStore(p.Redis, p.Cfg.Draft.TTL)
	}
	p.Log.Info("redis not configured, drafts are kept in memory")
	return NewMemoryStore(p.Cfg.Draft.TTL)
}

func NewLifecycleAutosaver(lc fx.Lifecycle, cfg config.Config, store Store, log *zap.Logger) *Autosaver {
	saver := NewAutosaver(store, cfg.Draft.Debounce, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			saver.Start()
			return nil
		},
		OnStop: saver.Stop,
	})
	return saver
}

type ServiceParams struct {
	fx.In

	Cfg   config.Config
	Store Store
	Saver *Autosaver
	Clock clock.Clock
	Log   *zap.Logger
}

func NewDraftService(p ServiceParams) *Service {
	return NewService(p.Store, p.Saver, Options{
		Numberer: format.NewNumberer(p.Cfg.Document.NumberTemplate),
		Clock:    p.Clock,
		DueDays:  p.Cfg.Draft.DueDays,
		Currency: p.Cfg.Draft.DefaultCurrency,
	}, p.Log)
}
