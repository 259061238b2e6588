package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Campfire/config/environment"
	"Campfire/models"
	"Campfire/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCandidates(provider *fakePlaces) *CandidateService {
	cfg := environment.Defaults()
	return NewCandidateService(provider, NewIdentityService(provider), cfg.Recommend, cfg.Places)
}

func seedRevisits(t *testing.T, repos *repositories.Repositories, n int) []models.Restaurant {
	t.Helper()
	out := make([]models.Restaurant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, seedRestaurant(t, repos, fmt.Sprintf("Revisit %d", i), fmt.Sprintf("rev_%d", i), "Chicago", ptr(4.0+float64(i)*0.1)))
	}
	return out
}

func revisitIDs(cs []models.Candidate) []uint {
	var out []uint
	for _, c := range cs {
		if c.IsRevisit {
			out = append(out, c.ID)
		}
	}
	return out
}

func TestAssembleUsesFreshCache(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	now := time.Now().UTC()
	for i := 0; i < 20; i++ {
		r := &models.Restaurant{
			Name: fmt.Sprintf("Cached %d", i), Provider: models.ProviderGoogle,
			PlaceID: fmt.Sprintf("c_%d", i), Slug: fmt.Sprintf("cached-%d", i),
			CityHint: "Chicago", LastEnrichedAt: &now,
		}
		require.NoError(t, repos.Restaurants.Create(ctx, r))
	}

	provider := newFakePlaces(searchResults("new", 5)...)
	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{City: "Chicago"})
	require.NoError(t, err)
	assert.Len(t, pool, 20)
	assert.Zero(t, provider.searchCount())
}

func TestAssembleCacheIgnoresCityCase(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	now := time.Now().UTC()
	for i := 0; i < 25; i++ {
		r := &models.Restaurant{
			Name: fmt.Sprintf("Cached %d", i), Provider: models.ProviderGoogle,
			PlaceID: fmt.Sprintf("c_%d", i), Slug: fmt.Sprintf("cached-%d", i),
			CityHint: "Chicago", LastEnrichedAt: &now,
		}
		require.NoError(t, repos.Restaurants.Create(ctx, r))
	}

	provider := newFakePlaces(searchResults("new", 5)...)
	for _, city := range []string{"chicago", "  CHICAGO "} {
		pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{City: city})
		require.NoError(t, err)
		assert.Len(t, pool, 25, city)
	}
	assert.Zero(t, provider.searchCount())
}

func TestAssembleSearchesAndStoresResults(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	provider := newFakePlaces(searchResults("s", 4)...)

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
		City: "Chicago", Neighborhood: "West Loop", Types: []string{"Bar"},
	})
	require.NoError(t, err)
	require.Len(t, pool, 4)
	assert.Equal(t, 1, provider.searchCount())

	q := provider.searches[0]
	assert.Equal(t, "West Loop", q.Neighborhood)
	assert.Equal(t, []string{"Bar"}, q.Types)
	assert.Equal(t, 8000, q.Radius)
	assert.Equal(t, 20, q.MaxResults)

	stored, err := repos.Restaurants.FindByPlace(ctx, models.ProviderGoogle, "s_0")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "chicago", stored.CityHint)
	assert.NotNil(t, stored.LastEnrichedAt)
	assert.Zero(t, provider.totalDetailCalls(), "search results carry their own details")
}

func TestAssembleFallsBackToStoredRowsWhenSearchFails(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	stale := seedRestaurant(t, repos, "Old Faithful", "old_1", "Chicago", ptr(4.2))
	seedRestaurant(t, repos, "Elsewhere", "nyc_1", "New York", ptr(4.9))

	provider := newFakePlaces()
	provider.searchErr = errUpstream

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{City: "Chicago"})
	require.NoError(t, err)
	assert.Equal(t, []uint{stale.ID}, ids(pool))
}

func TestAssembleBetaZeroExcludesRevisits(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	revisits := seedRevisits(t, repos, 2)

	// the provider happens to return a past recommendation
	results := append(searchResults("s", 3), place("rev_1", "Revisit 1", 4.1))
	provider := newFakePlaces(results...)

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
		City: "Chicago", Revisits: revisits, Beta: 0,
	})
	require.NoError(t, err)
	assert.Len(t, pool, 3)
	for _, c := range pool {
		assert.NotEqual(t, revisits[1].ID, c.ID)
		assert.False(t, c.IsRevisit)
	}
}

func TestAssembleBetaHalfInjectsTopRevisits(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	revisits := seedRevisits(t, repos, 5)
	provider := newFakePlaces(searchResults("s", 3)...)

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
		City: "Chicago", Revisits: revisits, Beta: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.searchCount())
	assert.Len(t, pool, 6)
	// ceil(0.5 * 5) = 3, best rated first
	assert.Equal(t, []uint{revisits[4].ID, revisits[3].ID, revisits[2].ID}, revisitIDs(pool))
}

func TestAssembleTagsRevisitAlreadyInSearchPool(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	revisits := seedRevisits(t, repos, 1)
	provider := newFakePlaces(place("rev_0", "Revisit 0", 4.0), place("s_1", "Other", 4.4))

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
		City: "Chicago", Revisits: revisits, Beta: 0.3,
	})
	require.NoError(t, err)
	assert.Len(t, pool, 2, "tagged in place, not duplicated")
	assert.Equal(t, []uint{revisits[0].ID}, revisitIDs(pool))
}

func TestAssembleBetaOne(t *testing.T) {
	t.Run("enough revisits skips search", func(t *testing.T) {
		ctx := context.Background()
		repos := repositories.New(newTestDB(t))
		revisits := seedRevisits(t, repos, 4)
		provider := newFakePlaces(searchResults("s", 3)...)

		pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
			City: "Chicago", Revisits: revisits, Beta: 1,
		})
		require.NoError(t, err)
		assert.Zero(t, provider.searchCount())
		require.Len(t, pool, 4)
		for _, c := range pool {
			assert.True(t, c.IsRevisit)
		}
	})

	t.Run("too few revisits searches instead", func(t *testing.T) {
		ctx := context.Background()
		repos := repositories.New(newTestDB(t))
		revisits := seedRevisits(t, repos, 2)
		provider := newFakePlaces(searchResults("s", 3)...)

		pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
			City: "Chicago", Revisits: revisits, Beta: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, provider.searchCount())
		assert.Len(t, pool, 3)
		assert.Empty(t, revisitIDs(pool))
	})

	t.Run("excluded revisits don't count", func(t *testing.T) {
		ctx := context.Background()
		repos := repositories.New(newTestDB(t))
		revisits := seedRevisits(t, repos, 3)
		provider := newFakePlaces(searchResults("s", 3)...)

		_, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
			City: "Chicago", Revisits: revisits, Beta: 1,
			Exclusions: map[uint]bool{revisits[0].ID: true},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, provider.searchCount())
	})
}

func TestAssembleRemovesExclusions(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	disliked := seedRestaurant(t, repos, "Bad Place", "bad_1", "Chicago", ptr(4.8))
	provider := newFakePlaces(append(searchResults("s", 2), place("bad_1", "Bad Place", 4.8))...)

	pool, err := newTestCandidates(provider).Assemble(ctx, repos, AssembleParams{
		City: "Chicago", Exclusions: map[uint]bool{disliked.ID: true},
	})
	require.NoError(t, err)
	assert.Len(t, pool, 2)
	assert.NotContains(t, ids(pool), disliked.ID)
}
