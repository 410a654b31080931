package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogoObjectName(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	name := LogoObjectName("Acme Corp", "Brand.PNG", at)
	assert.True(t, strings.HasPrefix(name, "logos/acme-corp/"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)

	assert.NotEqual(t, name, LogoObjectName("Acme Corp", "Brand.PNG", at))
	assert.True(t, strings.HasPrefix(LogoObjectName("", "x.jpg", at), "logos/anonymous/"))
}

func TestPublicURLEscapesSegments(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/assets/logos/a%20b/c.png",
		PublicURL("assets", "logos/a b/c.png"),
	)
}

func TestDisabledUploader(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "x", "image/png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
