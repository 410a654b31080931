package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicBaseURL = "https://storage.googleapis.com"

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSUploader writes publicly readable objects to one bucket.
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

func NewGCSUploader(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSUploader{client: client, bucket: cfg.Bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	w.PredefinedACL = "publicRead"

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return PublicURL(u.bucket, object), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// PublicURL is the anonymous download URL of object in bucket.
func PublicURL(bucket, object string) string {
	parts := strings.Split(object, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, bucket, strings.Join(parts, "/"))
}
