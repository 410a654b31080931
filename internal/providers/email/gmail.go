package email

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/smallbiznis/invoicekit/internal/clock"
)

// GmailSender sends through the user's own mailbox. Token handling is
// delegated to the TokenManager.
type GmailSender struct {
	tokens   *TokenManager
	endpoint string
	clock    clock.Clock
}

func NewGmailSender(tokens *TokenManager, endpoint string, clk clock.Clock) *GmailSender {
	if clk == nil {
		clk = clock.System()
	}
	return &GmailSender{tokens: tokens, endpoint: endpoint, clock: clk}
}

func (s *GmailSender) Name() string { return PathMailbox }

func (s *GmailSender) Send(ctx context.Context, userID string, msg Message) error {
	token, err := s.tokens.Token(ctx, userID)
	if err != nil {
		return err
	}

	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gmail client: %w", err)
	}

	raw, err := BuildMIME(msg, s.clock.Now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	if _, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: EncodeRaw(raw)}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}
