package services

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"

	"Campfire/logging"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/services/places"
	"Campfire/utils"

	"github.com/mmcloughlin/geohash"
	"gorm.io/gorm"
)

const (
	earthRadiusKm = 6371.0 // Radius of Earth in km
	// five characters is a cell of roughly 5 x 5 km
	nearbyPrecision      = 5
	defaultNearbyRadius  = 3.0
	maxNearbyRadius      = 5.0
	minAutocompleteInput = 2
)

// NearbyRestaurant is a stored restaurant with its distance from the caller
type NearbyRestaurant struct {
	models.Restaurant
	DistanceKm float64 `json:"distance_km"`
}

// RestaurantService serves read-only lookups over stored restaurants plus
// provider autocomplete for the input form
type RestaurantService struct {
	db     *gorm.DB
	places places.Provider
}

func NewRestaurantService(db *gorm.DB, provider places.Provider) *RestaurantService {
	return &RestaurantService{db: db, places: provider}
}

// Haversine formula to calculate distance between two lat/lng points
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1 = lat1 * (math.Pi / 180.0)
	lat2 = lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func (s *RestaurantService) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	restaurant, err := repositories.New(s.db).Restaurants.FindBySlug(ctx, slug)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("slug", slug).Msg("Error fetching restaurant")
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to fetch restaurant")
	}
	if restaurant == nil {
		return nil, utils.NewCustomError(http.StatusNotFound, "Restaurant not found")
	}
	return restaurant, nil
}

// GetNearbyRestaurants lists stored restaurants within radiusKm, closest
// first. The geohash cell and its neighbours narrow the scan; haversine does
// the exact cut.
func (s *RestaurantService) GetNearbyRestaurants(ctx context.Context, latitude, longitude, radiusKm float64) ([]NearbyRestaurant, error) {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, utils.BadRequest("Invalid coordinates")
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadius
	}
	radiusKm = math.Min(radiusKm, maxNearbyRadius)

	target := geohash.EncodeWithPrecision(latitude, longitude, nearbyPrecision)
	prefixes := append([]string{target}, geohash.Neighbors(target)...)

	rows, err := repositories.New(s.db).Restaurants.WithGeohashPrefix(ctx, prefixes)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Error fetching nearby restaurants")
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to get restaurants")
	}

	nearby := []NearbyRestaurant{}
	for _, r := range rows {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		distance := haversine(latitude, longitude, *r.Latitude, *r.Longitude)
		if distance <= radiusKm {
			nearby = append(nearby, NearbyRestaurant{Restaurant: r, DistanceKm: distance})
		}
	}

	// Sort by distance
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

// Autocomplete proxies the places provider. Provider trouble yields an
// empty list so the form keeps working.
func (s *RestaurantService) Autocomplete(ctx context.Context, query, city string) ([]models.PlaceSuggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minAutocompleteInput {
		return []models.PlaceSuggestion{}, nil
	}
	suggestions, err := s.places.Autocomplete(ctx, query, strings.TrimSpace(city))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("Autocomplete failed")
		return []models.PlaceSuggestion{}, nil
	}
	if suggestions == nil {
		suggestions = []models.PlaceSuggestion{}
	}
	return suggestions, nil
}
