package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Campfire/models"

	"gorm.io/gorm"
)

type RestaurantRepository struct {
	db *gorm.DB
}

// FindByPlace returns nil, nil when no row has this (provider, place_id)
func (r *RestaurantRepository) FindByPlace(ctx context.Context, provider, placeID string) (*models.Restaurant, error) {
	return r.first(ctx, "provider = ? AND place_id = ?", provider, placeID)
}

func (r *RestaurantRepository) FindBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id uint) (*models.Restaurant, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RestaurantRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).Where(query, args...).First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return &restaurant, nil
}

// FindByIDs keeps the order of ids and silently skips unknown ones
func (r *RestaurantRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Restaurant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find restaurants by id: %w", err)
	}
	byID := make(map[uint]models.Restaurant, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.Restaurant, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	restaurant.CityHint = models.CityKey(restaurant.CityHint)
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return fmt.Errorf("create restaurant %q: %w", restaurant.Slug, err)
	}
	return nil
}

// SaveEnrichment writes the rich attributes and freshness timestamp back.
// Identity columns (provider, place_id, slug, name) are left alone.
func (r *RestaurantRepository) SaveEnrichment(ctx context.Context, restaurant *models.Restaurant) error {
	restaurant.CityHint = models.CityKey(restaurant.CityHint)
	err := r.db.WithContext(ctx).Model(restaurant).
		Select("Location", "Categories", "CuisineType", "PriceLevel", "Rating", "UserRatingCount",
			"EditorialSummary", "PrimaryType", "ServesDineIn", "ServesTakeout", "ServesDelivery",
			"Reservable", "Latitude", "Longitude", "Geohash", "LastEnrichedAt", "CityHint").
		Updates(restaurant).Error
	if err != nil {
		return fmt.Errorf("refresh restaurant %d: %w", restaurant.ID, err)
	}
	return nil
}

// ForCity lists a city's rows for one provider, best rated first. The city
// is matched by CityKey. A zero since means any freshness.
func (r *RestaurantRepository) ForCity(ctx context.Context, city, provider string, since time.Time) ([]models.Restaurant, error) {
	q := r.db.WithContext(ctx).Where("city_hint = ? AND provider = ?", models.CityKey(city), provider)
	if !since.IsZero() {
		q = q.Where("last_enriched_at >= ?", since.UTC())
	}
	var rows []models.Restaurant
	if err := q.Order("rating IS NULL, rating DESC, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list cached restaurants for %s: %w", city, err)
	}
	return rows, nil
}

// WithGeohashPrefix lists rows whose geohash starts with any of prefixes
func (r *RestaurantRepository) WithGeohashPrefix(ctx context.Context, prefixes []string) ([]models.Restaurant, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(prefixes))
	args := make([]interface{}, 0, len(prefixes))
	for _, p := range prefixes {
		conds = append(conds, "geohash LIKE ?")
		args = append(args, p+"%")
	}
	var rows []models.Restaurant
	if err := r.db.WithContext(ctx).Where(strings.Join(conds, " OR "), args...).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list restaurants near %v: %w", prefixes, err)
	}
	return rows, nil
}
