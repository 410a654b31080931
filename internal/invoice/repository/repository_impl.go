package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
	"gorm.io/gorm"
)

const recordColumns = `id, user_id, kind, invoice_number, issue_date, due_date,
	bill_to, ship_to, company, items, tax_percentage, sub_total, tax_amount, grand_total,
	notes, currency_code, cashier, logo_url, template_name, template_index, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Kind,
		record.InvoiceNumber,
		record.IssueDate,
		record.DueDate,
		record.BillTo,
		record.ShipTo,
		record.Company,
		record.Items,
		record.TaxPercentage,
		record.SubTotal,
		record.TaxAmount,
		record.GrandTotal,
		record.Notes,
		record.CurrencyCode,
		record.Cashier,
		record.LogoURL,
		record.TemplateName,
		record.TemplateIndex,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Record, error) {
	var record domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` FROM invoices WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string, after *pagination.Cursor, limit int) ([]domain.Record, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("user_id = ?", userID)

	if after != nil {
		createdAt, err := time.Parse(time.RFC3339Nano, after.CreatedAt)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(after.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var items []domain.Record
	if err := stmt.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
