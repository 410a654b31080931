package pdf

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/render/raster"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(NewRasterizer),
	fx.Provide(NewProvider),
)

func NewRasterizer(cfg config.Config, log *zap.Logger) Rasterizer {
	logos := raster.NewHTTPLogoFetcher(nil, raster.WithAllowedHosts(cfg.Document.LogoAllowedHosts...))
	return raster.New(logos, raster.WithScale(cfg.Document.RasterScale), raster.WithLogger(log))
}

func NewProvider(r Rasterizer, log *zap.Logger) Provider {
	return New(r, log)
}
