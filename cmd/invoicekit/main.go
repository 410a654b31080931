package main

import (
	"context"
	"os"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/cache"
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/draft"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/invoice"
	"github.com/smallbiznis/invoicekit/internal/migration"
	"github.com/smallbiznis/invoicekit/internal/observability"
	"github.com/smallbiznis/invoicekit/internal/product"
	"github.com/smallbiznis/invoicekit/internal/providers"
	"github.com/smallbiznis/invoicekit/internal/quota"
	"github.com/smallbiznis/invoicekit/internal/ratelimit"
	"github.com/smallbiznis/invoicekit/internal/server"
	"github.com/smallbiznis/invoicekit/internal/settings"
	"github.com/smallbiznis/invoicekit/internal/subscription"
	"github.com/smallbiznis/invoicekit/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		fx.Provide(config.Load),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(clock.System),
		db.Module,
		migration.Module,
		cache.Module,
		external.Module,

		// Domains
		subscription.Module,
		quota.Module,
		ratelimit.Module,
		settings.Module,
		product.Module,
		providers.Module,
		draft.Module,
		invoice.Module,

		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)

	if err := app.Start(context.Background()); err != nil {
		zap.L().Error("application failed to start", zap.Error(err))
		os.Exit(1)
	}
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		zap.L().Error("application failed to stop cleanly", zap.Error(err))
		os.Exit(1)
	}
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
