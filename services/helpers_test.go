package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"Campfire/config/database"
	"Campfire/config/environment"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/services/places"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePlaces is an in-memory places backend that counts calls
type fakePlaces struct {
	mu          sync.Mutex
	details     map[string]models.Place
	results     []models.Place
	searchErr   error
	suggestions []models.PlaceSuggestion

	detailCalls map[string]int
	searches    []places.SearchQuery
}

func newFakePlaces(results ...models.Place) *fakePlaces {
	return &fakePlaces{
		details:     make(map[string]models.Place),
		results:     results,
		detailCalls: make(map[string]int),
	}
}

func (f *fakePlaces) Name() string { return models.ProviderGoogle }

func (f *fakePlaces) GetDetails(ctx context.Context, placeID string) (*models.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[placeID]++
	p, ok := f.details[placeID]
	if !ok {
		return nil, places.ErrNotFound
	}
	return &p, nil
}

func (f *fakePlaces) SearchNearby(ctx context.Context, q places.SearchQuery) ([]models.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]models.Place(nil), f.results...), nil
}

func (f *fakePlaces) Autocomplete(ctx context.Context, input, city string) ([]models.PlaceSuggestion, error) {
	return f.suggestions, nil
}

func (f *fakePlaces) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakePlaces) totalDetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.detailCalls {
		n += c
	}
	return n
}

var errUpstream = errors.New("upstream unavailable")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenDatabase(environment.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func place(id, name string, rating float64) models.Place {
	return models.Place{
		PlaceID:     id,
		Name:        name,
		Address:     name + " St, Chicago",
		Categories:  []string{"restaurant"},
		PriceLevel:  models.PriceLevelModerate,
		Rating:      ptr(rating),
		PrimaryType: "restaurant",
	}
}

// searchResults builds n distinct places with descending ratings
func searchResults(prefix string, n int) []models.Place {
	out := make([]models.Place, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, place(fmt.Sprintf("%s_%d", prefix, i), fmt.Sprintf("%s Kitchen %d", prefix, i), 4.9-float64(i)*0.05))
	}
	return out
}

func seedRestaurant(t *testing.T, repos *repositories.Repositories, name, placeID, city string, rating *float64) models.Restaurant {
	t.Helper()
	r := &models.Restaurant{
		Name:        name,
		Provider:    models.ProviderGoogle,
		PlaceID:     placeID,
		Slug:        placeID,
		PrimaryType: "restaurant",
		Rating:      rating,
		CityHint:    city,
	}
	require.NoError(t, repos.Restaurants.Create(context.Background(), r))
	return *r
}
