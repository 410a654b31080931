// Package quota decides whether a user may commit a document under their plan.
package quota

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/inflight"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
)

// Action names a guarded commit.
type Action string

const (
	ActionSaveInvoice Action = "save_invoice"
	ActionDownloadPDF Action = "download_pdf"
)

// Decision is the outcome of Check.
type Decision struct {
	Allowed   bool                     `json:"allowed"`
	Unlimited bool                     `json:"unlimited"`
	Reason    string                   `json:"reason,omitempty"`
	Usage     subscriptiondomain.Usage `json:"usage"`
}

// UsageService is the subscription collaborator the gate reads and bumps.
type UsageService interface {
	CurrentUsage(ctx context.Context, userID string) (subscriptiondomain.Usage, error)
	IncrementUsage(ctx context.Context, userID string) (subscriptiondomain.Usage, error)
}

type Gate struct {
	usage   UsageService
	policy  *config.QuotaPolicyHolder
	guard   inflight.Guard
	calls   external.Policy
	metrics *metrics.Metrics
	log     *zap.Logger
}

type Options struct {
	Policy  *config.QuotaPolicyHolder
	Guard   inflight.Guard
	Calls   external.Policy
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewGate(usage UsageService, opts Options) *Gate {
	if opts.Policy == nil {
		opts.Policy = config.NewStaticQuotaPolicyHolder(config.DefaultQuotaPolicy())
	}
	if opts.Guard == nil {
		opts.Guard = inflight.NewMemoryGuard()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Gate{
		usage:   usage,
		policy:  opts.Policy,
		guard:   opts.Guard,
		calls:   opts.Calls,
		metrics: opts.Metrics,
		log:     opts.Log.Named("quota.gate"),
	}
}

// Check reads the user's usage and decides whether action may run.
// Admins and plans outside the policy's trial list are unlimited.
func (g *Gate) Check(ctx context.Context, userID string, action Action) (Decision, error) {
	policy := g.policy.Get()
	if !policy.Guards(string(action)) {
		return Decision{Allowed: true, Unlimited: true}, nil
	}

	usage, err := external.Do(ctx, g.calls, "subscription", "current_usage", func(ctx context.Context) (subscriptiondomain.Usage, error) {
		return g.usage.CurrentUsage(ctx, userID)
	})
	if err != nil {
		return Decision{}, err
	}
	if usage.IsAdmin || !policy.IsTrial(usage.PlanName) {
		return Decision{Allowed: true, Unlimited: true, Usage: usage}, nil
	}
	if usage.Count >= usage.Limit {
		exceeded := &domain.QuotaExceededError{Plan: usage.PlanName, Used: usage.Count, Limit: usage.Limit}
		return Decision{Allowed: false, Reason: exceeded.Error(), Usage: usage}, nil
	}
	return Decision{Allowed: true, Usage: usage}, nil
}

// Run executes fn when action is allowed. A second Run of the same action for
// the same user fails with domain.ErrActionInFlight while the first is going.
// After a successful save the usage counter is bumped; a failed bump is logged
// and never undoes the save.
func (g *Gate) Run(ctx context.Context, userID string, action Action, fn func(context.Context) error) error {
	release, err := g.guard.Acquire(ctx, inflight.Key(userID, string(action)))
	if err != nil {
		return err
	}
	defer release()

	decision, err := g.Check(ctx, userID, action)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		g.metrics.RecordQuotaDenied(ctx, string(action), decision.Usage.PlanName)
		g.log.Info("quota exceeded",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.String("plan", decision.Usage.PlanName),
			zap.Int("count", decision.Usage.Count),
			zap.Int("limit", decision.Usage.Limit),
		)
		return &domain.QuotaExceededError{
			Plan:  decision.Usage.PlanName,
			Used:  decision.Usage.Count,
			Limit: decision.Usage.Limit,
		}
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if action == ActionSaveInvoice {
		g.increment(ctx, userID)
	}
	return nil
}

func (g *Gate) increment(ctx context.Context, userID string) {
	_, err := external.Do(ctx, g.calls, "subscription", "increment_usage", func(ctx context.Context) (subscriptiondomain.Usage, error) {
		return g.usage.IncrementUsage(ctx, userID)
	})
	if err == nil {
		return
	}
	fields := []zap.Field{zap.String("user_id", userID), zap.Error(err)}
	if errors.Is(err, context.Canceled) {
		g.log.Warn("usage increment skipped, request cancelled", fields...)
		return
	}
	g.log.Error("usage increment failed, counter under-reports", fields...)
}
