package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/smallbiznis/invoicekit/internal/clock"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender is the last-resort strategy over a plain SMTP relay.
type SMTPSender struct {
	cfg   SMTPConfig
	clock clock.Clock
	send  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg SMTPConfig, clk clock.Clock) *SMTPSender {
	if clk == nil {
		clk = clock.System()
	}
	return &SMTPSender{cfg: cfg, clock: clk, send: smtp.SendMail}
}

func (p *SMTPSender) Name() string { return PathSMTP }

func (p *SMTPSender) Send(ctx context.Context, _ string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = p.cfg.From
	}

	raw, err := BuildMIME(msg, p.clock.Now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	return p.send(addr, auth, p.cfg.From, []string{msg.To}, raw)
}
