package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Credential{}))
	return db
}

func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "r-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, db *gorm.DB, tokenURL string, now time.Time) *TokenManager {
	t.Helper()
	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}
	return NewTokenManager(cfg, db, NewCredentialRepository(), clock.NewFakeClock(now), nil)
}

func TestTokenRefreshesExpiredAndPersists(t *testing.T) {
	var hits int32
	srv := tokenServer(t, &hits)
	db := openDB(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newManager(t, db, srv.URL, now)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepository().Save(ctx, db, &Credential{
		UserID:       "u1",
		AccessToken:  "stale",
		RefreshToken: "r-1",
		TokenExpiry:  now.Add(-time.Hour),
	}))

	tok, err := m.Token(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	stored, err := NewCredentialRepository().Find(ctx, db, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "fresh", stored.AccessToken)
	assert.Equal(t, "r-1", stored.RefreshToken)
}

func TestTokenReusesValidToken(t *testing.T) {
	var hits int32
	srv := tokenServer(t, &hits)
	db := openDB(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newManager(t, db, srv.URL, now)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepository().Save(ctx, db, &Credential{
		UserID:       "u1",
		AccessToken:  "still-good",
		RefreshToken: "r-1",
		TokenExpiry:  now.Add(time.Hour),
	}))

	tok, err := m.Token(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok.AccessToken)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestTokenWithoutMailbox(t *testing.T) {
	db := openDB(t)
	m := newManager(t, db, "http://127.0.0.1:0", time.Now())

	_, err := m.Token(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoMailbox)
}

func TestLinkAndPreference(t *testing.T) {
	db := openDB(t)
	m := newManager(t, db, "http://127.0.0.1:0", time.Now())
	ctx := context.Background()

	assert.False(t, m.PrefersMailbox(ctx, "u1"))

	_, err := m.Link(ctx, "u1", "me@test", "r-1", true)
	require.NoError(t, err)
	assert.True(t, m.PrefersMailbox(ctx, "u1"))

	_, err = m.Link(ctx, "u1", "me@test", " ", true)
	assert.ErrorIs(t, err, ErrNoMailbox)
}
