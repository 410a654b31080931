// Package domain contains the per-user product catalog used to autofill line items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Product struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      string       `json:"user_id" gorm:"type:text;not null;index"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	Description string       `json:"description" gorm:"type:text"`
	Price       float64      `json:"price" gorm:"not null;default:0"`
	Active      bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Product) TableName() string { return "products" }
