// Package domain contains per-user branding settings.
package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"
)

// Branding is the company identity applied to rendered documents. Every field is optional.
type Branding struct {
	UserID       string    `gorm:"primaryKey;type:text" json:"user_id"`
	CompanyName  string    `gorm:"type:text" json:"company_name"`
	LogoURL      string    `gorm:"type:text" json:"logo_url"`
	Website      string    `gorm:"type:text" json:"website"`
	Address      string    `gorm:"type:text" json:"address"`
	Phone        string    `gorm:"type:text" json:"phone"`
	Email        string    `gorm:"type:text" json:"email"`
	PrimaryColor string    `gorm:"type:text" json:"primary_color"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName sets the database table name.
func (Branding) TableName() string { return "branding_settings" }

type UpdateRequest struct {
	CompanyName  *string `json:"company_name"`
	LogoURL      *string `json:"logo_url"`
	Website      *string `json:"website"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	PrimaryColor *string `json:"primary_color"`
}

type LogoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID string) (*Branding, error)
	Upsert(ctx context.Context, db *gorm.DB, branding *Branding) error
}

type Service interface {
	Get(ctx context.Context, userID string) (Branding, error)
	Update(ctx context.Context, userID string, req UpdateRequest) (Branding, error)
	UploadLogo(ctx context.Context, userID string, upload LogoUpload) (Branding, error)
}

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidColor       = errors.New("invalid_primary_color")
	ErrUnsupportedImage   = errors.New("unsupported_image_type")
	ErrImageTooLarge      = errors.New("image_too_large")
	ErrStorageUnavailable = errors.New("storage_not_configured")
)
