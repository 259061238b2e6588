package services

import (
	"context"
	"testing"

	"Campfire/config/environment"
	"Campfire/models"
	"Campfire/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapability answers with canned picks and remembers the prompts
type fakeCapability struct {
	refs        []models.RankedRef
	suggestions []models.NamedSuggestion
	err         error

	rankPrompts    []string
	suggestPrompts []string
}

func (f *fakeCapability) RankCandidates(ctx context.Context, prompt string) ([]models.RankedRef, error) {
	f.rankPrompts = append(f.rankPrompts, prompt)
	return f.refs, f.err
}

func (f *fakeCapability) SuggestRestaurants(ctx context.Context, prompt string) ([]models.NamedSuggestion, error) {
	f.suggestPrompts = append(f.suggestPrompts, prompt)
	return f.suggestions, f.err
}

func newTestRanking(capability RankingCapability, fallback bool) *RankingService {
	cfg := environment.Defaults().Ranking
	cfg.FreeTextFallback = fallback
	return NewRankingService(capability, NewIdentityService(newFakePlaces()), cfg)
}

func rankPool() []models.Candidate {
	return []models.Candidate{
		{Restaurant: models.Restaurant{ID: 11, Name: "Au Cheval", PlaceID: "p11", Slug: "au-cheval-chicago", Location: "800 W Randolph St", Rating: ptr(4.6), PriceLevel: models.PriceLevelModerate, PrimaryType: "hamburger_restaurant", EditorialSummary: "Diner-style burgers"}},
		{Restaurant: models.Restaurant{ID: 12, Name: "Girl & The Goat", PlaceID: "p12", Location: "809 W Randolph St", Rating: ptr(4.7)}, IsRevisit: true},
		{Restaurant: models.Restaurant{ID: 13, Name: "Lou Malnati's", PlaceID: "p13", Location: "439 N Wells St"}},
		{Restaurant: models.Restaurant{ID: 14, Name: "Alinea", PlaceID: "p14", Location: "1723 N Halsted St", Rating: ptr(4.8)}},
	}
}

func TestRankReconcilesByIndex(t *testing.T) {
	capability := &fakeCapability{refs: []models.RankedRef{
		{Index: 2, Reason: "Because you liked Monteverde", Description: "Bold small plates"},
		{Index: 9, Reason: "hallucinated"},
		{Index: 2, Reason: "duplicate"},
		{Index: 1},
		{Index: 4, Reason: "Because you liked Smyth"},
		{Index: 3, Reason: "over the limit"},
	}}
	svc := newTestRanking(capability, false)

	recs, err := svc.Rank(context.Background(), nil, RankInput{City: "Chicago", Candidates: rankPool()})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, uint(12), recs[0].RestaurantID)
	assert.Equal(t, "Girl & The Goat", recs[0].Name)
	assert.Equal(t, "809 W Randolph St", recs[0].Address)
	assert.Equal(t, "Because you liked Monteverde", recs[0].Reason)
	assert.True(t, recs[0].IsRevisit)

	assert.Equal(t, uint(11), recs[1].RestaurantID)
	assert.Equal(t, "Diner-style burgers", recs[1].Description, "falls back to the stored summary")
	assert.Equal(t, models.PriceLevelModerate, recs[1].PriceLevel)

	assert.Equal(t, uint(14), recs[2].RestaurantID)
}

func TestRankPromptContents(t *testing.T) {
	capability := &fakeCapability{refs: []models.RankedRef{{Index: 1}}}
	svc := newTestRanking(capability, false)

	_, err := svc.Rank(context.Background(), nil, RankInput{
		City:          "Chicago",
		Neighborhood:  "West Loop",
		Types:         []string{"Fine Dining", "Bar"},
		Profile:       models.TasteProfile{PreferredPriceLevel: models.PriceLevelExpensive, MinRating: ptr(4.3), PrefersDineIn: ptr(true)},
		Candidates:    rankPool(),
		Session:       []models.Restaurant{{Name: "Smyth", PrimaryType: "fine_dining_restaurant", Reservable: ptr(true)}},
		LikedNames:    []string{"Monteverde"},
		DislikedNames: []string{"Portillo's"},
		Alpha:         0.8,
	})
	require.NoError(t, err)
	require.Len(t, capability.rankPrompts, 1)
	prompt := capability.rankPrompts[0]

	assert.Contains(t, prompt, "1. Au Cheval — hamburger_restaurant, PRICE_LEVEL_MODERATE, rating: 4.6, Diner-style burgers")
	assert.Contains(t, prompt, "3. Lou Malnati's\n")
	assert.Contains(t, prompt, "4. Alinea — rating: 4.8")
	assert.Contains(t, prompt, "Preferred price level: PRICE_LEVEL_EXPENSIVE")
	assert.Contains(t, prompt, "Typical rating: 4.3")
	assert.Contains(t, prompt, "Favourite cuisine types: any")
	assert.Contains(t, prompt, "Prefers dine-in: true")
	assert.Contains(t, prompt, "Prefers reservations: unknown")
	assert.Contains(t, prompt, "- Smyth: fine_dining_restaurant, reservable")
	assert.Contains(t, prompt, "heavily influence")
	assert.NotContains(t, prompt, "Past preferences")
	assert.Contains(t, prompt, "Liked: Monteverde")
	assert.Contains(t, prompt, "Disliked: Portillo's")
	assert.Contains(t, prompt, "Neighborhood preference: West Loop")
	assert.Contains(t, prompt, "Restaurant type preference: Fine Dining, Bar")
}

func TestRankAlphaInstruction(t *testing.T) {
	cases := []struct {
		alpha float64
		want  string
		not   []string
	}{
		{0.2, "historical taste profile", []string{"heavily influence"}},
		{0.5, "", []string{"heavily influence", "historical taste profile"}},
		{0.7, "heavily influence", nil},
	}
	for _, tc := range cases {
		capability := &fakeCapability{refs: []models.RankedRef{{Index: 1}}}
		_, err := newTestRanking(capability, false).Rank(context.Background(), nil, RankInput{
			City: "Chicago", Candidates: rankPool(), Alpha: tc.alpha,
		})
		require.NoError(t, err)
		prompt := capability.rankPrompts[0]
		if tc.want != "" {
			assert.Contains(t, prompt, tc.want)
		}
		for _, s := range tc.not {
			assert.NotContains(t, prompt, s)
		}
	}
}

func TestRankFailuresGiveEmptyResult(t *testing.T) {
	t.Run("capability error", func(t *testing.T) {
		svc := newTestRanking(&fakeCapability{err: errUpstream}, false)
		recs, err := svc.Rank(context.Background(), nil, RankInput{City: "Chicago", Candidates: rankPool()})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("nothing usable", func(t *testing.T) {
		svc := newTestRanking(&fakeCapability{refs: []models.RankedRef{{Index: 0}, {Index: 40}}}, false)
		recs, err := svc.Rank(context.Background(), nil, RankInput{City: "Chicago", Candidates: rankPool()})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("empty pool without fallback", func(t *testing.T) {
		capability := &fakeCapability{}
		recs, err := newTestRanking(capability, false).Rank(context.Background(), nil, RankInput{City: "Chicago"})
		require.NoError(t, err)
		assert.Empty(t, recs)
		assert.Empty(t, capability.rankPrompts)
		assert.Empty(t, capability.suggestPrompts)
	})
}

func TestRankFreeTextFallback(t *testing.T) {
	ctx := context.Background()
	repos := repositories.New(newTestDB(t))
	disliked := &models.Restaurant{Name: "Bad Idea", Provider: models.ProviderManual, PlaceID: "manual-x", Slug: "bad-idea-chicago", CityHint: "Chicago"}
	require.NoError(t, repos.Restaurants.Create(ctx, disliked))

	capability := &fakeCapability{suggestions: []models.NamedSuggestion{
		{Name: "**Monteverde**", Reason: "Because you liked Avec", Description: "Handmade pasta"},
		{Name: "Bad Idea"},
		{Name: "Monteverde"},
		{Name: "!!!"},
		{Name: "Smyth & The Loyalist", Description: "Tasting menu"},
	}}
	svc := newTestRanking(capability, true)

	recs, err := svc.Rank(ctx, repos, RankInput{
		City:          "Chicago",
		Neighborhood:  "West Loop",
		Session:       []models.Restaurant{{Name: "Avec"}},
		DislikedNames: []string{"Bad Idea"},
		Exclusions:    map[uint]bool{disliked.ID: true},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Monteverde", recs[0].Name)
	assert.Equal(t, "monteverde-chicago", recs[0].Slug)
	assert.Equal(t, "Because you liked Avec", recs[0].Reason)
	assert.Equal(t, "Smyth The Loyalist", recs[1].Name)

	stored, err := repos.Restaurants.FindBySlug(ctx, "monteverde-chicago")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.ProviderAIGenerated, stored.Provider)
	assert.Contains(t, stored.PlaceID, "ai-")

	require.Len(t, capability.suggestPrompts, 1)
	prompt := capability.suggestPrompts[0]
	assert.Contains(t, prompt, "- Avec")
	assert.Contains(t, prompt, "- Bad Idea")
	assert.Contains(t, prompt, "West Loop neighborhood of Chicago")
}
