package settings

import (
	"github.com/smallbiznis/invoicekit/internal/settings/repository"
	"github.com/smallbiznis/invoicekit/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
