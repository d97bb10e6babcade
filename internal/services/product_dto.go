package services

import (
	"github.com/shopspring/decimal"
)

// DefaultPageLimit is used when a listing does not ask for a page size.
const DefaultPageLimit = 10

// PaginationQuery windows a product listing.
type PaginationQuery struct {
	Limit  int `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `json:"offset" query:"offset" validate:"omitempty,min=0"`
}

func (q PaginationQuery) normalized() (limit, offset int) {
	limit, offset = q.Limit, q.Offset
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// CreateProductInput is the payload for a new product.
type CreateProductInput struct {
	Title       string          `json:"title" validate:"required,min=1"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Description string          `json:"description"`
	Slug        string          `json:"slug"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Sizes       []string        `json:"sizes" validate:"required,dive,required"`
	Gender      string          `json:"gender" validate:"required,oneof=men women kid unisex"`
	Tags        []string        `json:"tags" validate:"omitempty,dive,required"`
	Images      []string        `json:"images" validate:"omitempty,dive,required"`
}

// UpdateProductInput is a partial payload; nil fields are left unchanged.
type UpdateProductInput struct {
	Title       *string          `json:"title" validate:"omitnil,min=1"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,gte=0"`
	Description *string          `json:"description"`
	Slug        *string          `json:"slug" validate:"omitnil,min=1"`
	Stock       *int             `json:"stock" validate:"omitnil,gte=0"`
	Sizes       []string         `json:"sizes" validate:"omitempty,dive,required"`
	Gender      *string          `json:"gender" validate:"omitnil,oneof=men women kid unisex"`
	Tags        []string         `json:"tags" validate:"omitempty,dive,required"`
	Images      []string         `json:"images" validate:"omitempty,dive,required"`
}
