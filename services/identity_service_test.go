package services

import (
	"context"
	"strings"
	"testing"

	"Campfire/models"
	"Campfire/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlaceIDsDedup(t *testing.T) {
	provider := newFakePlaces()
	alinea := place("pid_alinea", "Alinea", 4.8)
	alinea.Location = &models.GeoLocation{Latitude: 41.9134, Longitude: -87.6480}
	provider.details["pid_alinea"] = alinea
	provider.details["pid_goat"] = place("pid_goat", "Girl & the Goat", 4.6)

	svc := NewIdentityService(provider)
	repos := repositories.New(newTestDB(t))
	ctx := context.Background()

	got, err := svc.ResolvePlaceIDs(ctx, repos, []string{"pid_alinea", " pid_alinea ", "pid_goat", "pid_missing", ""}, "Chicago")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alinea", got[0].Name)
	assert.Equal(t, "alinea-chicago", got[0].Slug)
	assert.NotEmpty(t, got[0].Geohash)
	assert.NotNil(t, got[0].LastEnrichedAt)
	assert.Equal(t, "girl-the-goat-chicago", got[1].Slug)
	assert.Equal(t, 1, provider.detailCalls["pid_alinea"])
	assert.Equal(t, 1, provider.detailCalls["pid_missing"])

	// known ids never hit the provider again
	again, err := svc.ResolvePlaceIDs(ctx, repos, []string{"pid_alinea"}, "Chicago")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, got[0].ID, again[0].ID)
	assert.Equal(t, 1, provider.detailCalls["pid_alinea"])
}

func TestResolvePlaceSlugCollision(t *testing.T) {
	provider := newFakePlaces()
	provider.details["pid_a"] = place("pid_a", "Lula Cafe", 4.4)
	provider.details["pid_b"] = place("pid_b", "Lula Cafe", 4.1)

	svc := NewIdentityService(provider)
	repos := repositories.New(newTestDB(t))
	ctx := context.Background()

	a, err := svc.ResolvePlace(ctx, repos, "pid_a", "Chicago")
	require.NoError(t, err)
	b, err := svc.ResolvePlace(ctx, repos, "pid_b", "Chicago")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "lula-cafe-chicago", a.Slug)
	assert.True(t, strings.HasPrefix(b.Slug, "lula-cafe-chicago-"))
}

func TestResolvePlaceReusesSlugFromOtherProvider(t *testing.T) {
	provider := newFakePlaces()
	provider.details["pid_pizza"] = place("pid_pizza", "Pizza Place", 4.3)

	svc := NewIdentityService(provider)
	repos := repositories.New(newTestDB(t))
	ctx := context.Background()

	manual, err := svc.ResolveName(ctx, repos, "Pizza Place", "Chicago", models.ProviderManual)
	require.NoError(t, err)

	resolved, err := svc.ResolvePlace(ctx, repos, "pid_pizza", "Chicago")
	require.NoError(t, err)
	assert.Equal(t, manual.ID, resolved.ID)
	assert.Equal(t, "pizza-place-chicago", resolved.Slug)
}

func TestResolveNameReusesSlug(t *testing.T) {
	provider := newFakePlaces()
	provider.details["pid_monteverde"] = place("pid_monteverde", "Monteverde", 4.7)

	svc := NewIdentityService(provider)
	repos := repositories.New(newTestDB(t))
	ctx := context.Background()

	fromProvider, err := svc.ResolvePlace(ctx, repos, "pid_monteverde", "Chicago")
	require.NoError(t, err)

	manual, err := svc.ResolveName(ctx, repos, "  Monteverde ", "Chicago", models.ProviderManual)
	require.NoError(t, err)
	assert.Equal(t, fromProvider.ID, manual.ID)

	fresh, err := svc.ResolveName(ctx, repos, "Kasama", "Chicago", models.ProviderManual)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderManual, fresh.Provider)
	assert.True(t, strings.HasPrefix(fresh.PlaceID, "manual-"))

	skipped, err := svc.ResolveName(ctx, repos, "!!!", "", models.ProviderManual)
	require.NoError(t, err)
	assert.Nil(t, skipped)
}

func TestUpsertPlaceRefreshes(t *testing.T) {
	provider := newFakePlaces()
	svc := NewIdentityService(provider)
	repos := repositories.New(newTestDB(t))
	ctx := context.Background()

	first, err := svc.UpsertPlace(ctx, repos, place("pid_x", "Kasama", 4.5), "Chicago")
	require.NoError(t, err)

	updated := place("pid_x", "Kasama", 4.8)
	updated.EditorialSummary = "Filipino bakery by day"
	second, err := svc.UpsertPlace(ctx, repos, updated, "Chicago")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	stored, err := repos.Restaurants.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.8, *stored.Rating)
	assert.Equal(t, "Filipino bakery by day", stored.EditorialSummary)

	nameless, err := svc.UpsertPlace(ctx, repos, models.Place{PlaceID: "pid_y"}, "Chicago")
	require.NoError(t, err)
	assert.Nil(t, nameless)
}
