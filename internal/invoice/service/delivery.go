package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/currency"
	"github.com/smallbiznis/invoicekit/internal/inflight"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/view"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
)

const actionSendEmail = "send_email"

// Email renders doc to PDF and mails it to req.To. The recipient is checked
// before any network call is made. A second send for the same user fails with
// ErrActionInFlight until the first one returns.
func (s *Service) Email(ctx context.Context, userID string, doc invoicedomain.Document, req invoicedomain.EmailRequest) (invoicedomain.EmailResult, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.email")
	defer span.End()

	if err := requireUser(userID); err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}
	to, err := recipient(req.To)
	if err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}
	doc, err = normalize(doc)
	if err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}

	release, err := s.guard.Acquire(ctx, inflight.Key(userID, actionSendEmail))
	if err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}
	defer release()

	if err := s.allowMail(ctx, userID); err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}

	file, err := s.exportPDF(ctx, userID, doc)
	if err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}

	brand := s.lookupBranding(ctx, userID)
	msg := composeMessage(doc, req, to, brand.CompanyName, file)
	res, err := s.mailer.Deliver(ctx, userID, msg)
	if err != nil {
		return invoicedomain.EmailResult{}, s.fail(span, err)
	}

	s.log.Info("document emailed",
		zap.String("user_id", userID),
		zap.String("kind", string(doc.Kind)),
		zap.String("path", res.Path),
	)
	return invoicedomain.EmailResult{Path: res.Path, FileName: file.Name}, nil
}

func (s *Service) allowMail(ctx context.Context, userID string) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.AllowMail(ctx, userID)
	if err != nil {
		// Limiter outages never block delivery.
		s.log.Warn("mail rate limiter unavailable", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if !res.Allowed {
		s.metrics.RecordRateLimitDenied(ctx, "email")
		return fmt.Errorf("%w: retry in %s", invoicedomain.ErrRateLimited, res.RetryAfter.Round(time.Second))
	}
	return nil
}

func recipient(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invoicedomain.NewValidationError("to", "recipient email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", invoicedomain.NewValidationError("to", "recipient email is invalid")
	}
	return addr.Address, nil
}

func composeMessage(doc invoicedomain.Document, req invoicedomain.EmailRequest, to, company string, file *invoicedomain.ExportedFile) email.Message {
	label := doc.Kind.Label()
	sender := firstNonEmpty(doc.Company.Name, company)

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = strings.TrimSpace(fmt.Sprintf("%s %s", label, doc.Meta.Number))
		if sender != "" {
			subject += " from " + sender
		}
	}

	total := currency.Format(doc.Computed.GrandTotal, doc.CurrencyCode)
	body := strings.TrimSpace(req.Message)
	if body == "" {
		body = fmt.Sprintf("Please find attached %s %s for %s.", strings.ToLower(label), doc.Meta.Number, total)
		if doc.Kind == invoicedomain.KindInvoice && !doc.Meta.DueDate.IsZero() {
			body += " Payment is due by " + view.FormatDate(doc.Meta.DueDate) + "."
		}
	}

	return email.Message{
		To:      to,
		Subject: subject,
		Text:    body,
		Attachments: []email.Attachment{{
			Name:        file.Name,
			ContentType: file.ContentType,
			Data:        file.Data,
		}},
		Params: map[string]string{
			"document_kind":  strings.ToLower(label),
			"invoice_number": doc.Meta.Number,
			"grand_total":    total,
			"due_date":       view.FormatDate(doc.Meta.DueDate),
			"company_name":   sender,
			"to_name":        doc.BillTo.Name,
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
