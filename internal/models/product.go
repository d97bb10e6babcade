package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents a product in the catalog.
type Product struct {
	ID          string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string                      `json:"title" gorm:"type:text;not null"`
	Slug        string                      `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Price       decimal.Decimal             `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	Description string                      `json:"description" gorm:"type:text"`
	Stock       int                         `json:"stock" gorm:"not null;default:0"`
	Sizes       datatypes.JSONSlice[string] `json:"sizes"`
	Gender      string                      `json:"gender" gorm:"type:text"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// MakeSlug turns a title or a user supplied slug into the lowercase,
// hyphenated form used as the alternate lookup key.
func MakeSlug(s string) string {
	return slug.Make(s)
}

// BeforeCreate assigns the identifier and makes sure the slug is set.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Slug == "" {
		p.Slug = MakeSlug(p.Title)
	}
	return nil
}
