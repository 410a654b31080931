package invoice

import (
	"github.com/smallbiznis/invoicekit/internal/invoice/repository"
	"github.com/smallbiznis/invoicekit/internal/invoice/service"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	"github.com/smallbiznis/invoicekit/internal/render"
	"github.com/smallbiznis/invoicekit/internal/template"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(template.NewCatalog),
	fx.Provide(render.NewRenderer),
	fx.Provide(repository.Provide),
	fx.Provide(func(d *email.Dispatcher) service.Mailer { return d }),
	fx.Provide(service.NewService),
)
