package repositories

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translateWriteError(err))
	}
	return nil
}

// GetByUsername retrieves a user by their username.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *GORMUserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s %s: %w", column, value, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s %s: %w", column, value, err)
	}
	return &user, nil
}
