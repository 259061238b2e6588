package models

import "strings"

// Place is the rich record a places provider returns for one venue
type Place struct {
	PlaceID          string       `json:"place_id"`
	Name             string       `json:"name"`
	Address          string       `json:"address"`
	Categories       []string     `json:"categories"`
	PriceLevel       string       `json:"price_level,omitempty"`
	Rating           *float64     `json:"rating,omitempty"`
	UserRatingCount  *int         `json:"user_rating_count,omitempty"`
	EditorialSummary string       `json:"editorial_summary,omitempty"`
	PrimaryType      string       `json:"primary_type,omitempty"`
	ServesDineIn     *bool        `json:"serves_dine_in,omitempty"`
	ServesTakeout    *bool        `json:"serves_takeout,omitempty"`
	ServesDelivery   *bool        `json:"serves_delivery,omitempty"`
	Reservable       *bool        `json:"reservable,omitempty"`
	Location         *GeoLocation `json:"location,omitempty"`
	MapsLink         string       `json:"maps_link,omitempty"`
	ImageURL         string       `json:"image_url,omitempty"`
}

type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasName reports whether the provider gave us something we can slug
func (p *Place) HasName() bool {
	return p != nil && strings.TrimSpace(p.Name) != ""
}

// PlaceSuggestion is one autocomplete hit
type PlaceSuggestion struct {
	PlaceID     string `json:"place_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Price levels as reported by the Places API
const (
	PriceLevelFree          = "PRICE_LEVEL_FREE"
	PriceLevelInexpensive   = "PRICE_LEVEL_INEXPENSIVE"
	PriceLevelModerate      = "PRICE_LEVEL_MODERATE"
	PriceLevelExpensive     = "PRICE_LEVEL_EXPENSIVE"
	PriceLevelVeryExpensive = "PRICE_LEVEL_VERY_EXPENSIVE"
)
