// Package domain contains the per-user plan and usage counter.
package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Subscription is a user's plan with the number of documents committed so far.
type Subscription struct {
	UserID     string    `gorm:"primaryKey;type:text" json:"user_id"`
	PlanName   string    `gorm:"type:text;not null;default:'trial'" json:"plan_name"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	UsageLimit int       `gorm:"not null;default:0" json:"usage_limit"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Usage is the advisory view read before every guarded action.
type Usage struct {
	PlanName   string `json:"plan_name"`
	Count      int    `json:"count"`
	Limit      int    `json:"limit"`
	IsAdmin    bool   `json:"is_admin"`
	CanPerform bool   `json:"can_perform"`
}

// ChangePlanRequest sets a user's plan. A nil Limit takes the policy's trial
// limit on trial plans; an explicit zero blocks the user.
type ChangePlanRequest struct {
	PlanName string `json:"plan_name"`
	Limit    *int   `json:"limit"`
	IsAdmin  bool   `json:"is_admin"`
}

type Repository interface {
	FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*Subscription, error)
	Upsert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	IncrementUsage(ctx context.Context, db *gorm.DB, userID string, at time.Time) (int64, error)
}

type Service interface {
	CurrentUsage(ctx context.Context, userID string) (Usage, error)
	IncrementUsage(ctx context.Context, userID string) (Usage, error)
	ChangePlan(ctx context.Context, userID string, req ChangePlanRequest) (Usage, error)
}

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidPlan = errors.New("invalid_plan")
)
