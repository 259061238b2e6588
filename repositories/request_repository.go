package repositories

import (
	"context"
	"fmt"

	"Campfire/models"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

// Create inserts the request with its input and recommendation rows
func (r *RequestRepository) Create(ctx context.Context, req *models.UserRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// RestaurantsByType returns the distinct restaurants that appeared in the
// user's past requests with the given type, first appearance first
func (r *RequestRepository) RestaurantsByType(ctx context.Context, userID uint, typ string) ([]models.Restaurant, error) {
	var rows []models.RequestRestaurant
	err := r.db.WithContext(ctx).Preload("Restaurant").
		Joins("JOIN user_requests ON user_requests.id = request_restaurants.request_id").
		Where("user_requests.user_id = ? AND request_restaurants.type = ?", userID, typ).
		Order("request_restaurants.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s history: %w", typ, err)
	}
	seen := make(map[uint]bool, len(rows))
	out := make([]models.Restaurant, 0, len(rows))
	for _, row := range rows {
		if seen[row.RestaurantID] {
			continue
		}
		seen[row.RestaurantID] = true
		out = append(out, row.Restaurant)
	}
	return out, nil
}

// History lists every restaurant row of every request the user made, newest
// request first
func (r *RequestRepository) History(ctx context.Context, userID uint) ([]models.RequestRestaurant, error) {
	var rows []models.RequestRestaurant
	err := r.db.WithContext(ctx).Preload("Restaurant").
		Joins("JOIN user_requests ON user_requests.id = request_restaurants.request_id").
		Where("user_requests.user_id = ?", userID).
		Order("request_restaurants.request_id DESC, request_restaurants.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rows, nil
}
