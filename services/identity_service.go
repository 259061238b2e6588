package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Campfire/logging"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/services/places"
	"Campfire/utils"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
)

// maxSlugAttempts bounds the random-suffix retries on a slug collision
const maxSlugAttempts = 5

// IdentityService maps provider ids and free-text names onto canonical
// restaurant rows, creating them on first sight
type IdentityService struct {
	places places.Provider
	now    func() time.Time
}

func NewIdentityService(provider places.Provider) *IdentityService {
	return &IdentityService{
		places: provider,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ResolvePlaceIDs resolves each distinct id once, in first-seen order.
// Ids the provider can't describe are logged and skipped.
func (s *IdentityService) ResolvePlaceIDs(ctx context.Context, repos *repositories.Repositories, placeIDs []string, city string) ([]models.Restaurant, error) {
	var out []models.Restaurant
	seenIDs := make(map[string]bool, len(placeIDs))
	seenRows := make(map[uint]bool, len(placeIDs))
	for _, id := range placeIDs {
		id = strings.TrimSpace(id)
		if id == "" || seenIDs[id] {
			continue
		}
		seenIDs[id] = true

		restaurant, err := s.ResolvePlace(ctx, repos, id, city)
		if err != nil {
			return nil, err
		}
		// two ids can land on one row through the slug
		if restaurant == nil || seenRows[restaurant.ID] {
			continue
		}
		seenRows[restaurant.ID] = true
		out = append(out, *restaurant)
	}
	return out, nil
}

// ResolvePlace returns nil, nil when the id has to be skipped. Only
// persistence failures come back as errors.
func (s *IdentityService) ResolvePlace(ctx context.Context, repos *repositories.Repositories, placeID, city string) (*models.Restaurant, error) {
	provider := s.places.Name()
	existing, err := repos.Restaurants.FindByPlace(ctx, provider, placeID)
	if err != nil || existing != nil {
		return existing, err
	}

	place, err := s.places.GetDetails(ctx, placeID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("place_id", placeID).Msg("Place lookup failed, skipping")
		return nil, nil
	}
	if !place.HasName() {
		logging.Ctx(ctx).Warn().Str("place_id", placeID).Msg("Place has no usable name, skipping")
		return nil, nil
	}
	if place.PlaceID == "" {
		place.PlaceID = placeID
	}
	return s.createFromPlace(ctx, repos, provider, *place, city)
}

// UpsertPlace refreshes the row for a search result or creates it
func (s *IdentityService) UpsertPlace(ctx context.Context, repos *repositories.Repositories, place models.Place, city string) (*models.Restaurant, error) {
	if place.PlaceID == "" || !place.HasName() {
		return nil, nil
	}
	provider := s.places.Name()
	existing, err := repos.Restaurants.FindByPlace(ctx, provider, place.PlaceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.createFromPlace(ctx, repos, provider, place, city)
	}

	applyPlace(existing, place)
	existing.CityHint = city
	now := s.now()
	existing.LastEnrichedAt = &now
	if err := repos.Restaurants.SaveEnrichment(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// ResolveName handles free-text entries (provider "manual") and model output
// ("ai-generated"). Names that reduce to an empty slug are skipped.
func (s *IdentityService) ResolveName(ctx context.Context, repos *repositories.Repositories, name, city, provider string) (*models.Restaurant, error) {
	name = strings.TrimSpace(name)
	slug := utils.GenerateSlug(name, city)
	if name == "" || slug == "" {
		return nil, nil
	}

	existing, err := repos.Restaurants.FindBySlug(ctx, slug)
	if err != nil || existing != nil {
		return existing, err
	}

	restaurant := &models.Restaurant{
		Name:     name,
		Location: city,
		Provider: provider,
		PlaceID:  syntheticPlaceID(provider),
		Slug:     slug,
		CityHint: city,
	}
	if err := repos.Restaurants.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().Str("slug", slug).Str("provider", provider).Msg("Created restaurant from name")
	return restaurant, nil
}

func (s *IdentityService) createFromPlace(ctx context.Context, repos *repositories.Repositories, provider string, place models.Place, city string) (*models.Restaurant, error) {
	slug := utils.GenerateSlug(place.Name, city)
	if slug == "" {
		slug = utils.SuffixSlug("")
	}

	for attempt := 0; ; attempt++ {
		holder, err := repos.Restaurants.FindBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if holder == nil {
			break
		}
		// A slug held under another provider is the same restaurant seen
		// through a different identity, so that row is reused. Within one
		// provider a different place id is a different venue sharing a name
		// (two branches of a chain), and reusing it would merge them; it
		// gets a suffixed slug instead, keeping slugs unique.
		if holder.Provider != provider {
			return holder, nil
		}
		if attempt == maxSlugAttempts {
			return nil, fmt.Errorf("no free slug for %q after %d attempts", place.Name, maxSlugAttempts)
		}
		slug = utils.SuffixSlug(utils.GenerateSlug(place.Name, city))
	}

	now := s.now()
	restaurant := &models.Restaurant{
		Name:           strings.TrimSpace(place.Name),
		Provider:       provider,
		PlaceID:        place.PlaceID,
		Slug:           slug,
		CityHint:       city,
		LastEnrichedAt: &now,
	}
	applyPlace(restaurant, place)
	if err := repos.Restaurants.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// applyPlace copies the rich attributes of a provider record
func applyPlace(r *models.Restaurant, p models.Place) {
	r.Location = p.Address
	r.Categories = p.Categories
	r.CuisineType = ""
	if len(p.Categories) > 0 {
		r.CuisineType = p.Categories[0]
	}
	r.PriceLevel = p.PriceLevel
	r.Rating = p.Rating
	r.UserRatingCount = p.UserRatingCount
	r.EditorialSummary = p.EditorialSummary
	r.PrimaryType = p.PrimaryType
	r.ServesDineIn = p.ServesDineIn
	r.ServesTakeout = p.ServesTakeout
	r.ServesDelivery = p.ServesDelivery
	r.Reservable = p.Reservable
	if p.Location != nil {
		lat, lng := p.Location.Latitude, p.Location.Longitude
		r.Latitude = &lat
		r.Longitude = &lng
		r.Geohash = geohash.Encode(lat, lng)
	}
}

func syntheticPlaceID(provider string) string {
	prefix := "manual"
	if provider == models.ProviderAIGenerated {
		prefix = "ai"
	}
	return prefix + "-" + uuid.NewString()
}
