package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPlan = "trial"

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock  clock.Clock
	repo   subscriptiondomain.Repository
	policy *config.QuotaPolicyHolder
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Repo   subscriptiondomain.Repository
	Policy *config.QuotaPolicyHolder
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		clock:  p.Clock,
		repo:   p.Repo,
		policy: p.Policy,
	}
}

// CurrentUsage implements domain.Service. A user without a row is on the trial plan.
func (s *Service) CurrentUsage(ctx context.Context, userID string) (subscriptiondomain.Usage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return subscriptiondomain.Usage{}, subscriptiondomain.ErrInvalidUser
	}

	item, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.Usage{}, err
	}
	return s.toUsage(item), nil
}

// IncrementUsage implements domain.Service.
func (s *Service) IncrementUsage(ctx context.Context, userID string) (subscriptiondomain.Usage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return subscriptiondomain.Usage{}, subscriptiondomain.ErrInvalidUser
	}

	var item *subscriptiondomain.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		affected, err := s.repo.IncrementUsage(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			if err := s.repo.Upsert(ctx, tx, &subscriptiondomain.Subscription{
				UserID:     userID,
				PlanName:   defaultPlan,
				UsageLimit: s.policy.Get().TrialLimit,
				CreatedAt:  now,
				UpdatedAt:  now,
			}); err != nil {
				return err
			}
			if _, err := s.repo.IncrementUsage(ctx, tx, userID, now); err != nil {
				return err
			}
		}
		item, err = s.repo.FindByUserID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return subscriptiondomain.Usage{}, err
	}

	usage := s.toUsage(item)
	s.log.Debug("usage incremented",
		zap.String("user_id", userID),
		zap.String("plan", usage.PlanName),
		zap.Int("count", usage.Count),
		zap.Int("limit", usage.Limit),
	)
	return usage, nil
}

// ChangePlan implements domain.Service. The usage count is kept.
func (s *Service) ChangePlan(ctx context.Context, userID string, req subscriptiondomain.ChangePlanRequest) (subscriptiondomain.Usage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return subscriptiondomain.Usage{}, subscriptiondomain.ErrInvalidUser
	}
	plan := strings.TrimSpace(req.PlanName)
	var limit int
	switch {
	case req.Limit != nil && *req.Limit < 0:
		return subscriptiondomain.Usage{}, subscriptiondomain.ErrInvalidPlan
	case req.Limit != nil:
		limit = *req.Limit
	case s.policy.Get().IsTrial(plan):
		limit = s.policy.Get().TrialLimit
	}

	now := s.clock.Now().UTC()
	err := s.repo.Upsert(ctx, s.db, &subscriptiondomain.Subscription{
		UserID:     userID,
		PlanName:   plan,
		UsageLimit: limit,
		IsAdmin:    req.IsAdmin,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return subscriptiondomain.Usage{}, err
	}
	return s.CurrentUsage(ctx, userID)
}

func (s *Service) toUsage(item *subscriptiondomain.Subscription) subscriptiondomain.Usage {
	policy := s.policy.Get()
	if item == nil {
		return subscriptiondomain.Usage{
			PlanName:   defaultPlan,
			Limit:      policy.TrialLimit,
			CanPerform: policy.TrialLimit > 0,
		}
	}

	usage := subscriptiondomain.Usage{
		PlanName: item.PlanName,
		Count:    item.UsageCount,
		Limit:    item.UsageLimit,
		IsAdmin:  item.IsAdmin,
	}
	usage.CanPerform = usage.IsAdmin || !policy.IsTrial(usage.PlanName) || usage.Count < usage.Limit
	return usage
}
