package email

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/observability/metrics"
)

// Preferences answers whether a user wants mail sent from their own mailbox.
type Preferences interface {
	PrefersMailbox(ctx context.Context, userID string) bool
}

// Result names the strategy that delivered the message.
type Result struct {
	Path string
}

type DispatcherOptions struct {
	// Mailbox is tried first for users who prefer it.
	Mailbox Sender
	// Transactional is the default strategy and the mailbox fallback.
	Transactional Sender
	// Fallbacks run after both, in order.
	Fallbacks   []Sender
	Preferences Preferences
	Calls       external.Policy
	Pipeline    *metrics.PipelineMetrics
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// Dispatcher tries strategies in order; the first success wins and every
// failure is aggregated into the returned error.
type Dispatcher struct {
	opts DispatcherOptions
	log  *zap.Logger
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{opts: opts, log: log.Named("email.dispatcher")}
}

// Order returns the strategies that would be tried for userID.
func (d *Dispatcher) Order(ctx context.Context, userID string) []Sender {
	var out []Sender
	if d.opts.Mailbox != nil && d.opts.Preferences != nil && d.opts.Preferences.PrefersMailbox(ctx, userID) {
		out = append(out, d.opts.Mailbox)
	}
	if d.opts.Transactional != nil {
		out = append(out, d.opts.Transactional)
	}
	for _, s := range d.opts.Fallbacks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *Dispatcher) Deliver(ctx context.Context, userID string, msg Message) (Result, error) {
	senders := d.Order(ctx, userID)
	if len(senders) == 0 {
		return Result{}, &domain.ExternalServiceError{Service: "mail", Op: "deliver", Cause: ErrNoStrategies}
	}

	var errs *multierror.Error
	for _, sender := range senders {
		err := external.Call(ctx, d.opts.Calls, sender.Name(), "send", func(ctx context.Context) error {
			return sender.Send(ctx, userID, msg)
		})
		d.opts.Pipeline.ObserveMailAttempt(sender.Name(), err)
		if err == nil {
			d.opts.Metrics.RecordMailDelivered(ctx, sender.Name())
			if errs != nil {
				d.log.Info("mail delivered after fallback",
					zap.String("user_id", userID),
					zap.String("path", sender.Name()),
					zap.Int("failed_attempts", errs.Len()),
				)
			}
			return Result{Path: sender.Name()}, nil
		}

		d.log.Warn("mail strategy failed",
			zap.String("user_id", userID),
			zap.String("strategy", sender.Name()),
			zap.Error(err),
		)
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, &domain.ExternalServiceError{Service: "mail", Op: "deliver", Cause: errs.ErrorOrNil()}
}
