// Package email delivers documents through interchangeable mail strategies.
package email

import (
	"context"
	"errors"
)

// Strategy names reported back to callers as the delivery path.
const (
	PathMailbox       = "gmail"
	PathTransactional = "emailjs"
	PathSMTP          = "smtp"
)

var (
	ErrNoMailbox    = errors.New("mailbox_not_linked")
	ErrNoStrategies = errors.New("no_mail_strategy_configured")
)

// Sender is one delivery strategy.
type Sender interface {
	Name() string
	Send(ctx context.Context, userID string, msg Message) error
}
