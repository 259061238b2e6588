package models

// TasteProfile is rebuilt for every request. Features with no signal are
// left nil/empty and dropped from JSON.
type TasteProfile struct {
	PreferredPriceLevel string   `json:"preferred_price_level,omitempty"`
	MinRating           *float64 `json:"min_rating,omitempty"`
	TopCuisineTypes     []string `json:"top_cuisine_types,omitempty"`
	PrefersDineIn       *bool    `json:"prefers_dine_in,omitempty"`
	PrefersTakeout      *bool    `json:"prefers_takeout,omitempty"`
	PrefersReservable   *bool    `json:"prefers_reservable,omitempty"`
}

// IsEmpty is true when no feature had a single valid value
func (p TasteProfile) IsEmpty() bool {
	return p.PreferredPriceLevel == "" && p.MinRating == nil && len(p.TopCuisineTypes) == 0 &&
		p.PrefersDineIn == nil && p.PrefersTakeout == nil && p.PrefersReservable == nil
}
