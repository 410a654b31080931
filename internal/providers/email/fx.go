package email

import (
	"net/http"
	"time"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewCredentialRepository),
	fx.Provide(NewTokenManagerFromConfig),
	fx.Provide(NewDispatcherFromConfig),
)

type TokenParams struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Repo  CredentialRepository
	Clock clock.Clock
	Log   *zap.Logger
}

func NewTokenManagerFromConfig(p TokenParams) *TokenManager {
	oauth := &oauth2.Config{
		ClientID:     p.Cfg.Mail.Gmail.ClientID,
		ClientSecret: p.Cfg.Mail.Gmail.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.Cfg.Mail.Gmail.TokenURL},
		Scopes:       []string{GmailSendScope},
	}
	return NewTokenManager(oauth, p.DB, p.Repo, p.Clock, p.Log)
}

type DispatcherParams struct {
	fx.In

	Cfg      config.Config
	Tokens   *TokenManager
	Clock    clock.Clock
	Calls    external.Policy
	Pipeline *metrics.PipelineMetrics `optional:"true"`
	Metrics  *metrics.Metrics         `optional:"true"`
	Log      *zap.Logger
}

func NewDispatcherFromConfig(p DispatcherParams) *Dispatcher {
	mail := p.Cfg.Mail
	opts := DispatcherOptions{
		Preferences: p.Tokens,
		Calls:       p.Calls,
		Pipeline:    p.Pipeline,
		Metrics:     p.Metrics,
		Log:         p.Log,
	}
	if mail.Gmail.Enabled() {
		opts.Mailbox = NewGmailSender(p.Tokens, "", p.Clock)
	}
	if mail.EmailJS.Enabled() {
		opts.Transactional = NewEmailJSSender(mail.EmailJS, &http.Client{Timeout: 30 * time.Second})
	}
	if mail.SMTP.Enabled() {
		from := mail.SMTP.From
		if from == "" {
			from = mail.From
		}
		opts.Fallbacks = append(opts.Fallbacks, NewSMTP(SMTPConfig{
			Host:     mail.SMTP.Host,
			Port:     mail.SMTP.Port,
			Username: mail.SMTP.Username,
			Password: mail.SMTP.Password,
			From:     from,
		}, p.Clock))
	}
	return NewDispatcher(opts)
}
