package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicekit/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, user_id, name, description, price, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.UserID,
		product.Name,
		product.Description,
		product.Price,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET name = ?, description = ?, price = ?, active = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		product.Name,
		product.Description,
		product.Price,
		product.Active,
		product.UpdatedAt,
		product.UserID,
		product.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, description, price, active, created_at, updated_at
		 FROM products WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("user_id = ?", userID)

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", q+"%")
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("active = ?", true)
	}

	if err := stmt.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
