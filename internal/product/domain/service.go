package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*Product, error)
	List(ctx context.Context, userID string, req ListRequest) ([]Product, error)
	Get(ctx context.Context, userID, id string) (*Product, error)
	Archive(ctx context.Context, userID, id string) (*Product, error)
	LineItem(ctx context.Context, userID, id string) (invoicedomain.LineItem, error)
}

type ListRequest struct {
	Query           string `form:"q"`
	IncludeArchived bool   `form:"include_archived"`
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidID    = errors.New("invalid_id")
)
