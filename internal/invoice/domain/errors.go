package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTemplateNotFound = errors.New("template_not_found")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvalidKind      = errors.New("invalid_document_kind")
	ErrItemOutOfRange   = errors.New("item_out_of_range")
	ErrUnknownItemField = errors.New("unknown_item_field")
	ErrActionInFlight   = errors.New("action_in_flight")
	ErrRateLimited      = errors.New("rate_limited")

	ErrValidation      = errors.New("validation_failed")
	ErrQuotaExceeded   = errors.New("quota_exceeded")
	ErrExternalService = errors.New("external_service_failure")
	ErrExportFailed    = errors.New("export_failed")
)

// ValidationError reports a required field missing before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// QuotaExceededError is returned by the usage gate when the plan limit is reached.
type QuotaExceededError struct {
	Plan  string
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	plan := strings.TrimSpace(e.Plan)
	if plan == "" {
		plan = "trial"
	}
	return fmt.Sprintf("You have used %d of %d documents allowed on the %s plan. Upgrade to continue.", e.Used, e.Limit, plan)
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// ExternalServiceError wraps a failed call to a backend or third-party API.
type ExternalServiceError struct {
	Service string
	Op      string
	Cause   error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error { return e.Cause }

func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }

// ExportError wraps a rasterization or PDF assembly failure.
type ExportError struct {
	Stage string
	Cause error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed during %s: %v", e.Stage, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }

func (e *ExportError) Is(target error) bool { return target == ErrExportFailed }
