// Package external bounds calls to collaborators outside the process:
// each attempt gets a timeout and a failed call is retried once after a short pause.
package external

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 1
	DefaultBackoff = 300 * time.Millisecond
)

type Policy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Timeout: DefaultTimeout, Retries: DefaultRetries, Backoff: DefaultBackoff}
}

// PolicyFrom reads the policy from configuration, filling unset values with defaults.
func PolicyFrom(cfg config.Config) Policy {
	p := Policy{
		Timeout: cfg.External.Timeout,
		Retries: cfg.External.Retries,
		Backoff: cfg.External.Backoff,
	}
	return p.normalize()
}

func (p Policy) normalize() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultBackoff
	}
	return p
}

// Do runs fn under the policy and returns its value. Validation and quota
// errors are returned as-is without a retry; any other final failure is
// wrapped in a *domain.ExternalServiceError naming service and op.
func Do[T any](ctx context.Context, p Policy, service, op string, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalize()

	attempt := func() (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()

		out, err := fn(attemptCtx)
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	out, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Backoff)),
		backoff.WithMaxTries(uint(p.Retries+1)),
	)
	if err == nil {
		return out, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	if !retryable(err) {
		return out, err
	}
	var ext *domain.ExternalServiceError
	if errors.As(err, &ext) {
		return out, err
	}
	return out, &domain.ExternalServiceError{Service: service, Op: op, Cause: err}
}

// Call is Do for operations without a result.
func Call(ctx context.Context, p Policy, service, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, service, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrQuotaExceeded),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
