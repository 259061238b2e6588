package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the stores that share one gorm handle, usually a
// transaction
type Repositories struct {
	Restaurants *RestaurantRepository
	Users       *UserRepository
	Preferences *PreferenceRepository
	Requests    *RequestRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Restaurants: &RestaurantRepository{db: db},
		Users:       &UserRepository{db: db},
		Preferences: &PreferenceRepository{db: db},
		Requests:    &RequestRepository{db: db},
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls back every write it made.
func Transaction(ctx context.Context, db *gorm.DB, fn func(repos *Repositories) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
