package repository

import (
	"context"

	"github.com/smallbiznis/invoicekit/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string) (*domain.Branding, error) {
	var b domain.Branding
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, company_name, logo_url, website, address, phone, email, primary_color, updated_at
		 FROM branding_settings WHERE user_id = ?`,
		userID,
	).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.UserID == "" {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, branding *domain.Branding) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "logo_url", "website", "address", "phone", "email", "primary_color", "updated_at",
		}),
	}).Create(branding).Error
}
