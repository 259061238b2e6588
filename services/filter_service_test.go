package services

import (
	"testing"

	"Campfire/config/environment"
	"Campfire/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter() *FilterService {
	return NewFilterService(environment.Defaults().Recommend)
}

func cand(id uint, primaryType, price string, rating *float64, categories ...string) models.Candidate {
	return models.Candidate{Restaurant: models.Restaurant{
		ID:          id,
		Name:        primaryType,
		PrimaryType: primaryType,
		PriceLevel:  price,
		Rating:      rating,
		Categories:  categories,
	}}
}

func ids(cs []models.Candidate) []uint {
	out := make([]uint, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestFilterLodgingAlwaysRemoved(t *testing.T) {
	f := newTestFilter()
	pool := []models.Candidate{
		cand(1, "hotel", "", ptr(4.9)),
		cand(2, "restaurant", "", ptr(4.0)),
		cand(3, "Inn", "", ptr(4.5)),
	}

	once := f.Apply(pool, nil, nil)
	assert.Equal(t, []uint{2}, ids(once), "lodging is dropped even when few remain")

	twice := f.Apply(once, nil, nil)
	assert.Equal(t, once, twice)

	for typ := range lodgingTypes {
		assert.Empty(t, f.Apply([]models.Candidate{cand(9, typ, "", ptr(5.0))}, nil, nil), typ)
	}
}

func TestFilterExclusionsAreAbsolute(t *testing.T) {
	f := newTestFilter()
	pool := []models.Candidate{
		cand(1, "restaurant", "", ptr(4.0)),
		cand(2, "restaurant", "", ptr(4.5)),
	}

	out := f.Apply(pool, map[uint]bool{2: true}, nil)
	assert.Equal(t, []uint{1}, ids(out))
}

func TestFilterRatingFloor(t *testing.T) {
	f := newTestFilter()

	t.Run("applied when enough survive", func(t *testing.T) {
		pool := []models.Candidate{
			cand(1, "restaurant", "", ptr(4.1)),
			cand(2, "restaurant", "", ptr(3.0)),
			cand(3, "restaurant", "", ptr(3.5)),
			cand(4, "restaurant", "", nil),
			cand(5, "restaurant", "", ptr(4.7)),
		}
		out := f.Apply(pool, nil, nil)
		assert.Equal(t, []uint{5, 1, 3}, ids(out))
		for _, c := range out {
			require.NotNil(t, c.Rating)
			assert.GreaterOrEqual(t, *c.Rating, 3.5)
		}
	})

	t.Run("skipped when it would leave too few", func(t *testing.T) {
		pool := []models.Candidate{
			cand(1, "restaurant", "", ptr(4.1)),
			cand(2, "restaurant", "", ptr(3.0)),
			cand(3, "restaurant", "", nil),
			cand(4, "restaurant", "", ptr(2.0)),
		}
		out := f.Apply(pool, nil, nil)
		assert.Equal(t, []uint{1, 2, 4, 3}, ids(out), "all kept, missing rating last")
	})
}

func TestFilterFineDiningFallsBackBelowFloor(t *testing.T) {
	f := newTestFilter()
	pool := []models.Candidate{
		cand(1, "restaurant", models.PriceLevelExpensive, ptr(4.5)),
		cand(2, "restaurant", models.PriceLevelModerate, ptr(4.4)),
		cand(3, "cafe", models.PriceLevelInexpensive, ptr(4.3)),
		cand(4, "pizza_restaurant", models.PriceLevelModerate, ptr(4.2)),
	}

	out := f.Apply(pool, nil, []string{"Fine Dining"})
	assert.Len(t, out, 4)
}

func TestFilterTypeMatch(t *testing.T) {
	f := newTestFilter()
	pool := []models.Candidate{
		cand(1, fineDiningType, models.PriceLevelModerate, ptr(4.8)),
		cand(2, "restaurant", models.PriceLevelVeryExpensive, ptr(4.7)),
		cand(3, "restaurant", models.PriceLevelExpensive, ptr(4.6)),
		cand(4, "wine_bar", models.PriceLevelModerate, ptr(4.5)),
		cand(5, "restaurant", models.PriceLevelModerate, ptr(4.4), "restaurant", "pub"),
		cand(6, "cafe", models.PriceLevelInexpensive, ptr(4.3)),
		cand(7, "cocktail_bar", "", ptr(4.2)),
	}

	assert.Equal(t, []uint{1, 2, 3}, ids(f.Apply(pool, nil, []string{"Fine Dining"})))
	assert.Equal(t, []uint{4, 5, 7}, ids(f.Apply(pool, nil, []string{"bar"})))
	assert.Equal(t, []uint{3, 4, 5, 6, 7}, ids(f.Apply(pool, nil, []string{"Casual"})))
	assert.Equal(t, []uint{1, 2, 3, 4, 5, 7}, ids(f.Apply(pool, nil, []string{"Fine Dining", "Bar"})), "types are OR-combined")
	assert.Len(t, f.Apply(pool, nil, []string{"Brunch"}), 7, "unknown types are ignored")
}

func TestFilterNeverReturnsDisliked(t *testing.T) {
	f := newTestFilter()
	pool := []models.Candidate{
		cand(1, "restaurant", "", ptr(2.0)),
		cand(2, "restaurant", "", ptr(2.5)),
		cand(3, "restaurant", "", nil),
	}
	// floors are skipped here, exclusions still hold
	out := f.Apply(pool, map[uint]bool{3: true}, []string{"Fine Dining"})
	assert.Equal(t, []uint{2, 1}, ids(out))
}
