package models

import "time"

// Preference labels
const (
	PreferenceLike    = "like"
	PreferenceDislike = "dislike"
	PreferenceNeutral = "neutral"
)

// Preference is a user's label for one restaurant. Timestamp moves only when
// the label changes.
type Preference struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_user_restaurant_pref" json:"user_id"`
	RestaurantID uint       `gorm:"not null;uniqueIndex:idx_user_restaurant_pref" json:"restaurant_id"`
	Preference   string     `gorm:"not null" json:"preference"`
	Timestamp    time.Time  `json:"timestamp"`
	Restaurant   Restaurant `json:"-"`
}

func (Preference) TableName() string {
	return "user_restaurant_preferences"
}

// ValidPreference reports whether s is one of the three labels
func ValidPreference(s string) bool {
	switch s {
	case PreferenceLike, PreferenceDislike, PreferenceNeutral:
		return true
	}
	return false
}
