package repository

import (
	"context"
	"time"

	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, plan_name, usage_count, usage_limit, is_admin, created_at, updated_at
		 FROM subscriptions WHERE user_id = ?`,
		userID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.UserID == "" {
		return nil, nil
	}
	return &subscription, nil
}

// Upsert writes the plan fields and leaves an existing usage count untouched.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_name", "usage_limit", "is_admin", "updated_at"}),
	}).Create(subscription).Error
}

// IncrementUsage bumps the counter in one statement and reports the affected rows.
// Zero rows means the user has no subscription row yet.
func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, userID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET usage_count = usage_count + 1, updated_at = ? WHERE user_id = ?`,
		at,
		userID,
	)
	return res.RowsAffected, res.Error
}
