package storage

import (
	"context"

	"github.com/smallbiznis/invoicekit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Uploader, error) {
	if cfg.Storage.GCSBucket == "" {
		log.Info("logo storage disabled, GCS_BUCKET not set")
		return Disabled{}, nil
	}

	uploader, err := NewGCSUploader(context.Background(), GCSConfig{
		Bucket:          cfg.Storage.GCSBucket,
		CredentialsFile: cfg.Storage.GCSCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return uploader.Close() },
	})
	return uploader, nil
}
