package services

import (
	"math"
	"sort"

	"Campfire/models"
)

const topCuisineCount = 3

// weightedTally accumulates fractional votes and remembers first-seen
// order for tie-breaks
type weightedTally struct {
	order   []string
	weights map[string]float64
}

func (t *weightedTally) add(value string, w float64) {
	if w == 0 {
		return
	}
	if t.weights == nil {
		t.weights = make(map[string]float64)
	}
	if _, ok := t.weights[value]; !ok {
		t.order = append(t.order, value)
	}
	t.weights[value] += w
}

// top returns up to n values by descending weight; equal weights keep
// first-seen order
func (t *weightedTally) top(n int) []string {
	ranked := append([]string(nil), t.order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.weights[ranked[i]] > t.weights[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// sideWeights gives the per-item weight of each population. An empty side
// contributes nothing and the other side carries the full weight.
func sideWeights(nHistory, nSession int, alpha float64) (float64, float64) {
	switch {
	case nHistory > 0 && nSession > 0:
		return (1 - alpha) / float64(nHistory), alpha / float64(nSession)
	case nHistory > 0:
		return 1 / float64(nHistory), 0
	case nSession > 0:
		return 0, 1 / float64(nSession)
	default:
		return 0, 0
	}
}

func weightedCategorical(history, session []models.Restaurant, alpha float64, key func(models.Restaurant) string) *weightedTally {
	var h, s []string
	for _, r := range history {
		if v := key(r); v != "" {
			h = append(h, v)
		}
	}
	for _, r := range session {
		if v := key(r); v != "" {
			s = append(s, v)
		}
	}

	hw, sw := sideWeights(len(h), len(s), alpha)
	tally := &weightedTally{}
	for _, v := range h {
		tally.add(v, hw)
	}
	for _, v := range s {
		tally.add(v, sw)
	}
	return tally
}

func weightedNumeric(history, session []models.Restaurant, alpha float64, key func(models.Restaurant) *float64) *float64 {
	var h, s []float64
	for _, r := range history {
		if v := key(r); v != nil {
			h = append(h, *v)
		}
	}
	for _, r := range session {
		if v := key(r); v != nil {
			s = append(s, *v)
		}
	}
	if len(h) == 0 && len(s) == 0 {
		return nil
	}

	hw, sw := sideWeights(len(h), len(s), alpha)
	var sum float64
	for _, v := range h {
		sum += hw * v
	}
	for _, v := range s {
		sum += sw * v
	}
	return &sum
}

func weightedBool(history, session []models.Restaurant, alpha float64, key func(models.Restaurant) *bool) *bool {
	asFloat := func(b *bool) *float64 {
		if b == nil {
			return nil
		}
		v := 0.0
		if *b {
			v = 1
		}
		return &v
	}
	mean := weightedNumeric(history, session, alpha, func(r models.Restaurant) *float64 { return asFloat(key(r)) })
	if mean == nil {
		return nil
	}
	// small epsilon so an exact 50/50 split isn't lost to float rounding
	prefers := *mean >= 0.5-1e-9
	return &prefers
}

// BuildTasteProfile blends the user's history with this session's picks.
// alpha is the share of weight given to the session side and is clamped to
// [0, 1]. Features with no valid value anywhere are left out.
func BuildTasteProfile(history, session []models.Restaurant, alpha float64) models.TasteProfile {
	var profile models.TasteProfile
	if len(history) == 0 && len(session) == 0 {
		return profile
	}
	alpha = clamp01(alpha)

	price := weightedCategorical(history, session, alpha, func(r models.Restaurant) string { return r.PriceLevel })
	if top := price.top(1); len(top) > 0 {
		profile.PreferredPriceLevel = top[0]
	}

	if rating := weightedNumeric(history, session, alpha, func(r models.Restaurant) *float64 { return r.Rating }); rating != nil {
		rounded := math.Round(*rating*10) / 10
		profile.MinRating = &rounded
	}

	cuisine := weightedCategorical(history, session, alpha, func(r models.Restaurant) string { return r.PrimaryType })
	if top := cuisine.top(topCuisineCount); len(top) > 0 {
		profile.TopCuisineTypes = top
	}

	profile.PrefersDineIn = weightedBool(history, session, alpha, func(r models.Restaurant) *bool { return r.ServesDineIn })
	profile.PrefersTakeout = weightedBool(history, session, alpha, func(r models.Restaurant) *bool { return r.ServesTakeout })
	profile.PrefersReservable = weightedBool(history, session, alpha, func(r models.Restaurant) *bool { return r.Reservable })
	return profile
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
