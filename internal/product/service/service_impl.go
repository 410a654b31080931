package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicekit/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, userID string, req domain.ListRequest) ([]domain.Product, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.List(ctx, s.db, userID, req)
}

func (s *Service) Create(ctx context.Context, userID string, req domain.CreateRequest) (*domain.Product, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, domain.ErrInvalidPrice
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, strings.TrimSpace(userID), productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Archive(ctx context.Context, userID, id string) (*domain.Product, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	item.Active = false
	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// LineItem turns a catalog entry into a one-unit line item.
func (s *Service) LineItem(ctx context.Context, userID, id string) (invoicedomain.LineItem, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return invoicedomain.LineItem{}, err
	}
	return invoicedomain.LineItem{
		Name:        item.Name,
		Description: item.Description,
		Quantity:    1,
		UnitAmount:  item.Price,
		LineTotal:   item.Price,
	}, nil
}
