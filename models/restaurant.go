package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Restaurant providers
const (
	ProviderGoogle      = "google"
	ProviderMapsScraper = "maps-scraper"
	ProviderManual      = "manual"
	ProviderAIGenerated = "ai-generated"
)

// Restaurant is the canonical record. (provider, place_id) and slug are both
// unique; rows are refreshed but never deleted.
type Restaurant struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	Name             string                      `gorm:"not null" json:"name"`
	Location         string                      `json:"location"`
	Provider         string                      `gorm:"not null;uniqueIndex:idx_restaurant_provider_place" json:"provider"`
	PlaceID          string                      `gorm:"not null;uniqueIndex:idx_restaurant_provider_place" json:"place_id"`
	Slug             string                      `gorm:"not null;uniqueIndex" json:"slug"`
	Categories       datatypes.JSONSlice[string] `json:"categories"`
	CuisineType      string                      `json:"cuisine_type,omitempty"`
	PriceLevel       string                      `json:"price_level,omitempty"`
	Rating           *float64                    `json:"rating,omitempty"`
	UserRatingCount  *int                        `json:"user_rating_count,omitempty"`
	EditorialSummary string                      `json:"editorial_summary,omitempty"`
	PrimaryType      string                      `json:"primary_type,omitempty"`
	ServesDineIn     *bool                       `json:"serves_dine_in,omitempty"`
	ServesTakeout    *bool                       `json:"serves_takeout,omitempty"`
	ServesDelivery   *bool                       `json:"serves_delivery,omitempty"`
	Reservable       *bool                       `json:"reservable,omitempty"`
	Latitude         *float64                    `json:"latitude,omitempty"`
	Longitude        *float64                    `json:"longitude,omitempty"`
	Geohash          string                      `gorm:"index" json:"geohash,omitempty"`
	LastEnrichedAt   *time.Time                  `gorm:"index" json:"last_enriched_at,omitempty"`
	CityHint         string                      `gorm:"index" json:"city_hint,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// CityKey is the stored form of a city hint: trimmed, single-spaced and
// case-folded, so "Chicago" and " chicago" share one cache partition.
func CityKey(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

// RatingOrZero treats a missing rating as the lowest possible one
func (r Restaurant) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// Candidate is a restaurant in the recommendation pool
type Candidate struct {
	Restaurant
	IsRevisit bool `json:"is_revisit"`
}

// Recommendation is what the caller gets back
type Recommendation struct {
	RestaurantID uint     `json:"restaurant_id"`
	PlaceID      string   `json:"place_id"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       *float64 `json:"rating,omitempty"`
	PriceLevel   string   `json:"price_level,omitempty"`
	Description  string   `json:"description,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	IsRevisit    bool     `json:"is_revisit"`
}

// RankedRef is one line of a ranking response: a 1-based candidate index
// plus optional prose
type RankedRef struct {
	Index       int
	Reason      string
	Description string
}

// NamedSuggestion is a free-text pick when there was no pool to rank
type NamedSuggestion struct {
	Name        string
	Reason      string
	Description string
}
