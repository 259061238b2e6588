package repositories

import (
	"context"
	"errors"
	"fmt"

	"Campfire/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

// FindByName returns nil, nil for unknown users
func (r *UserRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", name, err)
	}
	return &user, nil
}

// FindOrCreate creates the user on first use
func (r *UserRepository) FindOrCreate(ctx context.Context, name string) (*models.User, error) {
	existing, err := r.FindByName(ctx, name)
	if err != nil || existing != nil {
		return existing, err
	}
	user := models.User{Name: name}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user %q: %w", name, err)
	}
	return &user, nil
}
