package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Campfire/config/environment"
	"Campfire/models"
)

// ErrNotFound is returned by GetDetails when the provider has no such place
var ErrNotFound = errors.New("place not found")

// SearchQuery describes an area search. Types are the user-facing
// restaurant types ("Fine Dining", "Bar", "Casual").
type SearchQuery struct {
	City         string
	Neighborhood string
	Types        []string
	Radius       int
	MaxResults   int
}

// Area is the free-text location the search is centred on
func (q SearchQuery) Area() string {
	if n := strings.TrimSpace(q.Neighborhood); n != "" {
		return n + ", " + q.City
	}
	return q.City
}

// Key identifies identical searches
func (q SearchQuery) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", strings.ToLower(q.City), strings.ToLower(q.Neighborhood),
		strings.ToLower(strings.Join(q.Types, ",")), q.Radius, q.MaxResults)
}

// Provider is a places-data backend
type Provider interface {
	Name() string
	GetDetails(ctx context.Context, placeID string) (*models.Place, error)
	SearchNearby(ctx context.Context, q SearchQuery) ([]models.Place, error)
	Autocomplete(ctx context.Context, input, city string) ([]models.PlaceSuggestion, error)
}

// IncludedTypes maps requested restaurant types onto place types for the
// search call. Casual (or nothing) searches plain restaurants.
func IncludedTypes(types []string) []string {
	included := []string{"restaurant"}
	for _, t := range types {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "fine dining":
			included = append(included, "fine_dining_restaurant")
		case "bar":
			included = append(included, "bar")
		}
	}
	return included
}

// New picks the backend named in config and wraps it with the breaker and
// outbound throttle
func New(cfg environment.PlacesConfig, breaker environment.BreakerConfig) (Provider, error) {
	var backend Provider
	switch cfg.Provider {
	case models.ProviderGoogle:
		backend = NewGoogleProvider(cfg)
	case models.ProviderMapsScraper:
		backend = NewMapsScraper(cfg)
	default:
		return nil, fmt.Errorf("unknown places provider %q", cfg.Provider)
	}
	return NewResilient(backend, cfg, breaker), nil
}
