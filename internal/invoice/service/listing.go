package service

import (
	"context"
	"time"

	"github.com/smallbiznis/invoicekit/internal/external"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
)

// List pages through the user's saved documents, newest first.
func (s *Service) List(ctx context.Context, userID string, page pagination.Pagination) (invoicedomain.ListResult, error) {
	if err := requireUser(userID); err != nil {
		return invoicedomain.ListResult{}, err
	}

	var after *pagination.Cursor
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return invoicedomain.ListResult{}, invoicedomain.NewValidationError("page_token", "malformed")
		}
		after = cursor
	}

	limit := page.Limit()
	rows, err := external.Do(ctx, s.calls, "database", "list_invoices", func(ctx context.Context) ([]invoicedomain.Record, error) {
		return s.repo.ListByUser(ctx, s.db, userID, after, limit+1)
	})
	if err != nil {
		return invoicedomain.ListResult{}, err
	}

	items, info := pagination.BuildCursorPageInfo(rows, limit, func(r invoicedomain.Record) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        r.ID.String(),
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if items == nil {
		items = []invoicedomain.Record{}
	}
	return invoicedomain.ListResult{Items: items, PageInfo: info}, nil
}
