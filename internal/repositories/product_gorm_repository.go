package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns one page of products, oldest first.
func (r *GORMProductRepository) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	products := make([]models.Product, 0, limit)
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Take(&product, "id = ?", id).Error; err != nil {
		return nil, r.lookupError(err, "id "+id)
	}
	return &product, nil
}

// GetByTitleOrSlug retrieves the product whose upper-cased title equals the
// upper-cased term, or whose slug equals the lower-cased term. Both sides of the
// title comparison are folded by the store, the same way the unique title index is.
func (r *GORMProductRepository) GetByTitleOrSlug(ctx context.Context, term string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("UPPER(title) = UPPER(?) OR slug = ?", term, strings.ToLower(term)).
		Take(&product).Error
	if err != nil {
		return nil, r.lookupError(err, "term "+term)
	}
	return &product, nil
}

// Create inserts a new product. The ID is assigned by the model hook when empty.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translateWriteError(err))
	}
	return nil
}

// Update writes every column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", translateWriteError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete removes the product row permanently.
func (r *GORMProductRepository) Delete(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", product.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

func (r *GORMProductRepository) lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product with %s: %w", what, ErrProductNotFound)
	}
	return fmt.Errorf("failed to get product by %s: %w", what, err)
}
