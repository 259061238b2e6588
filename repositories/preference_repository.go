package repositories

import (
	"context"
	"fmt"
	"time"

	"Campfire/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository struct {
	db *gorm.DB
}

// Upsert sets the label for (user, restaurant). The timestamp only moves
// when the stored label actually changes.
func (r *PreferenceRepository) Upsert(ctx context.Context, userID, restaurantID uint, label string, now time.Time) error {
	pref := models.Preference{
		UserID:       userID,
		RestaurantID: restaurantID,
		Preference:   label,
		Timestamp:    now,
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "restaurant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"timestamp":  gorm.Expr("CASE WHEN preference <> excluded.preference THEN excluded.timestamp ELSE timestamp END"),
			"preference": gorm.Expr("excluded.preference"),
		}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("upsert preference user=%d restaurant=%d: %w", userID, restaurantID, err)
	}
	return nil
}

// Find returns nil, nil when the pair has no label yet
func (r *PreferenceRepository) Find(ctx context.Context, userID, restaurantID uint) (*models.Preference, error) {
	var prefs []models.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Limit(1).Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("find preference: %w", err)
	}
	if len(prefs) == 0 {
		return nil, nil
	}
	return &prefs[0], nil
}

// RestaurantsByLabel lists the user's restaurants carrying label, oldest
// label first
func (r *PreferenceRepository) RestaurantsByLabel(ctx context.Context, userID uint, label string) ([]models.Restaurant, error) {
	var prefs []models.Preference
	err := r.db.WithContext(ctx).Preload("Restaurant").
		Where("user_id = ? AND preference = ?", userID, label).
		Order("timestamp, id").Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s preferences: %w", label, err)
	}
	out := make([]models.Restaurant, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, p.Restaurant)
	}
	return out, nil
}

// Labels maps restaurant id to label for everything the user has labelled
func (r *PreferenceRepository) Labels(ctx context.Context, userID uint) (map[uint]string, error) {
	var prefs []models.Preference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	labels := make(map[uint]string, len(prefs))
	for _, p := range prefs {
		labels[p.RestaurantID] = p.Preference
	}
	return labels, nil
}
