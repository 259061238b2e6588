package models

import "time"

// Request restaurant types
const (
	RequestTypeInput          = "input"
	RequestTypeRecommendation = "recommendation"
)

// UserRequest records one recommendation call. Written once, never updated.
type UserRequest struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	UserID       uint                `gorm:"not null;index" json:"user_id"`
	City         string              `gorm:"not null" json:"city"`
	Neighborhood string              `json:"neighborhood,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Restaurants  []RequestRestaurant `gorm:"foreignKey:RequestID" json:"restaurants,omitempty"`
}

type RequestRestaurant struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RequestID    uint       `gorm:"not null;index" json:"request_id"`
	RestaurantID uint       `gorm:"not null;index" json:"restaurant_id"`
	Type         string     `gorm:"not null" json:"type"`
	Restaurant   Restaurant `json:"restaurant"`
}

// RecommendationRequest is the body of a recommendation call. Weights are
// pointers so an explicit 0 can be told apart from "not sent".
type RecommendationRequest struct {
	User             string   `json:"user"`
	City             string   `json:"city"`
	Neighborhood     string   `json:"neighborhood"`
	PlaceIDs         []string `json:"place_ids"`
	InputRestaurants []string `json:"input_restaurants"`
	RestaurantTypes  []string `json:"restaurant_types"`
	InputWeight      *float64 `json:"input_weight"`
	RevisitWeight    *float64 `json:"revisit_weight"`
}

type PreferenceInput struct {
	RestaurantID uint   `json:"restaurant_id" binding:"required"`
	Preference   string `json:"preference" binding:"required,oneof=like dislike neutral"`
}

type SavePreferencesRequest struct {
	User        string            `json:"user" binding:"required"`
	Preferences []PreferenceInput `json:"preferences" binding:"required,dive"`
}

// HistoryEntry is one restaurant in a user's dining history with its
// current label
type HistoryEntry struct {
	Restaurant Restaurant `json:"restaurant"`
	Preference string     `json:"preference"`
	Source     string     `json:"source"`
}
