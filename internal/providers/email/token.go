package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	// GmailSendScope is the only scope the mailbox strategy needs.
	GmailSendScope = "https://www.googleapis.com/auth/gmail.send"

	expiryDelta = time.Minute
)

// TokenManager owns the mailbox token lifecycle: it checks expiry, refreshes
// through the OAuth token endpoint and persists the new access token.
type TokenManager struct {
	oauth *oauth2.Config
	db    *gorm.DB
	repo  CredentialRepository
	clock clock.Clock
	log   *zap.Logger
}

func NewTokenManager(oauth *oauth2.Config, db *gorm.DB, repo CredentialRepository, clk clock.Clock, log *zap.Logger) *TokenManager {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenManager{oauth: oauth, db: db, repo: repo, clock: clk, log: log.Named("email.token")}
}

// Token returns a usable access token for the user's mailbox.
func (m *TokenManager) Token(ctx context.Context, userID string) (*oauth2.Token, error) {
	cred, err := m.repo.Find(ctx, m.db, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil || strings.TrimSpace(cred.RefreshToken) == "" {
		return nil, ErrNoMailbox
	}

	current := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.TokenExpiry,
	}
	if m.fresh(current) {
		return current, nil
	}

	// An empty access token forces the source to refresh.
	stale := *current
	stale.AccessToken = ""
	refreshed, err := m.oauth.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh mailbox token: %w", err)
	}

	cred.AccessToken = refreshed.AccessToken
	cred.TokenExpiry = refreshed.Expiry
	if refreshed.RefreshToken != "" {
		cred.RefreshToken = refreshed.RefreshToken
	}
	cred.UpdatedAt = m.clock.Now().UTC()
	if err := m.repo.Save(ctx, m.db, cred); err != nil {
		m.log.Warn("persist refreshed token failed", zap.String("user_id", userID), zap.Error(err))
	}
	return refreshed, nil
}

// PrefersMailbox reports the user's delivery preference. Lookup failures read as false.
func (m *TokenManager) PrefersMailbox(ctx context.Context, userID string) bool {
	cred, err := m.repo.Find(ctx, m.db, userID)
	if err != nil {
		m.log.Warn("mail preference lookup failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return cred != nil && cred.PrefersMailbox && cred.RefreshToken != ""
}

// Link stores a refresh token obtained by the consent flow.
func (m *TokenManager) Link(ctx context.Context, userID, address, refreshToken string, prefers bool) (*Credential, error) {
	userID = strings.TrimSpace(userID)
	refreshToken = strings.TrimSpace(refreshToken)
	if userID == "" || refreshToken == "" {
		return nil, ErrNoMailbox
	}
	cred := &Credential{
		UserID:         userID,
		Email:          strings.TrimSpace(address),
		RefreshToken:   refreshToken,
		PrefersMailbox: prefers,
		UpdatedAt:      m.clock.Now().UTC(),
	}
	if err := m.repo.Save(ctx, m.db, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (m *TokenManager) fresh(t *oauth2.Token) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return t.Expiry.After(m.clock.Now().Add(expiryDelta))
}
