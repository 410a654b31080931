// Package storage uploads user assets and hands back their public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
)

var ErrNotConfigured = errors.New("storage_not_configured")

type Uploader interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

// Disabled rejects every upload. It stands in when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

// LogoObjectName builds a collision-free object path for a user's logo.
func LogoObjectName(userID, fileName string, at time.Time) string {
	owner := slug.Make(userID)
	if owner == "" {
		owner = "anonymous"
	}
	ext := strings.ToLower(path.Ext(fileName))
	id := ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy())
	return fmt.Sprintf("logos/%s/%s%s", owner, strings.ToLower(id.String()), ext)
}
