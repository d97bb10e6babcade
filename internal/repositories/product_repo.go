package repositories

import (
	"context"

	"catalog/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByTitleOrSlug matches the title case-insensitively or the slug in lowercase.
	GetByTitleOrSlug(ctx context.Context, term string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, product *models.Product) error
}
