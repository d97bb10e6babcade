package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account allowed to change the catalog.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required,min=3,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255);not null" validate:"required,min=6"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the identifier.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
