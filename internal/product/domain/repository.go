package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, userID string, filter ListRequest) ([]Product, error)
}
