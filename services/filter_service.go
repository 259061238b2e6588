package services

import (
	"sort"
	"strings"

	"Campfire/config/environment"
	"Campfire/metrics"
	"Campfire/models"
)

// Requested restaurant types understood by the type filter
const (
	TypeFineDining = "Fine Dining"
	TypeBar        = "Bar"
	TypeCasual     = "Casual"
)

const fineDiningType = "fine_dining_restaurant"

var lodgingTypes = map[string]bool{
	"hotel":               true,
	"motel":               true,
	"lodging":             true,
	"extended_stay_hotel": true,
	"resort_hotel":        true,
	"bed_and_breakfast":   true,
	"hostel":              true,
	"inn":                 true,
	"vacation_rental":     true,
}

var barTypes = map[string]bool{
	"bar":           true,
	"cocktail_bar":  true,
	"wine_bar":      true,
	"pub":           true,
	"bar_and_grill": true,
}

// FilterService narrows a candidate pool. Guarded steps are skipped when
// they would leave fewer than MinFilterResults candidates.
type FilterService struct {
	ratingFloor float64
	minResults  int
}

func NewFilterService(cfg environment.RecommendConfig) *FilterService {
	return &FilterService{ratingFloor: cfg.RatingFloor, minResults: cfg.MinFilterResults}
}

// Apply runs lodging removal, exclusion removal, the rating floor and the
// type match in that order, then sorts by rating (missing last).
func (s *FilterService) Apply(candidates []models.Candidate, exclusions map[uint]bool, requestedTypes []string) []models.Candidate {
	out := keep(candidates, func(c models.Candidate) bool { return !isLodging(c.Restaurant) })
	out = keep(out, func(c models.Candidate) bool { return !exclusions[c.ID] })

	out = s.guarded("rating_floor", out, func(c models.Candidate) bool {
		return c.RatingOrZero() >= s.ratingFloor
	})

	if types := normalizeTypes(requestedTypes); len(types) > 0 {
		out = s.guarded("type_match", out, func(c models.Candidate) bool {
			for _, t := range types {
				if matchesType(c.Restaurant, t) {
					return true
				}
			}
			return false
		})
	}

	sortByRating(out)
	return out
}

func (s *FilterService) guarded(name string, in []models.Candidate, pred func(models.Candidate) bool) []models.Candidate {
	out := keep(in, pred)
	if len(out) < s.minResults {
		metrics.RecordFilterSkip(name)
		return in
	}
	return out
}

func keep(in []models.Candidate, pred func(models.Candidate) bool) []models.Candidate {
	out := make([]models.Candidate, 0, len(in))
	for _, c := range in {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func isLodging(r models.Restaurant) bool {
	return lodgingTypes[strings.ToLower(r.PrimaryType)]
}

func normalizeTypes(types []string) []string {
	var out []string
	for _, t := range types {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "fine dining":
			out = append(out, TypeFineDining)
		case "bar":
			out = append(out, TypeBar)
		case "casual":
			out = append(out, TypeCasual)
		}
	}
	return out
}

func matchesType(r models.Restaurant, requested string) bool {
	switch requested {
	case TypeFineDining:
		return r.PriceLevel == models.PriceLevelExpensive ||
			r.PriceLevel == models.PriceLevelVeryExpensive ||
			r.PrimaryType == fineDiningType
	case TypeBar:
		if barTypes[r.PrimaryType] {
			return true
		}
		for _, cat := range r.Categories {
			if barTypes[cat] {
				return true
			}
		}
		return false
	case TypeCasual:
		return r.PrimaryType != fineDiningType && r.PriceLevel != models.PriceLevelVeryExpensive
	}
	return false
}

func sortByRating(cs []models.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		ri, rj := cs[i].Rating, cs[j].Rating
		if ri == nil || rj == nil {
			return ri != nil && rj == nil
		}
		return *ri > *rj
	})
}
