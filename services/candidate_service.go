package services

import (
	"context"
	"math"
	"time"

	"Campfire/config/environment"
	"Campfire/logging"
	"Campfire/metrics"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/services/places"
)

// AssembleParams carries one request's inputs to the pool assembler.
// Revisits are previously recommended restaurants the user hasn't disliked,
// in any order.
type AssembleParams struct {
	City         string
	Neighborhood string
	Types        []string
	Exclusions   map[uint]bool
	Revisits     []models.Restaurant
	Beta         float64
}

// CandidateService builds the pool the ranker chooses from: a provider
// search (or the stored rows for the city when they are fresh enough)
// mixed with revisits according to beta
type CandidateService struct {
	places    places.Provider
	identity  *IdentityService
	recommend environment.RecommendConfig
	radius    int
	maxResult int
	now       func() time.Time
}

func NewCandidateService(provider places.Provider, identity *IdentityService, recommend environment.RecommendConfig, placesCfg environment.PlacesConfig) *CandidateService {
	return &CandidateService{
		places:    provider,
		identity:  identity,
		recommend: recommend,
		radius:    placesCfg.SearchRadius,
		maxResult: placesCfg.MaxResults,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *CandidateService) Assemble(ctx context.Context, repos *repositories.Repositories, p AssembleParams) ([]models.Candidate, error) {
	beta := clamp01(p.Beta)
	exclusions := make(map[uint]bool, len(p.Exclusions)+len(p.Revisits))
	for id, excluded := range p.Exclusions {
		exclusions[id] = excluded
	}

	revisits := qualifyingRevisits(p.Revisits, exclusions)
	switch {
	case beta == 0:
		for _, r := range revisits {
			exclusions[r.ID] = true
		}
		revisits = nil
	case beta == 1:
		if len(revisits) >= s.recommend.RevisitThreshold {
			logging.Ctx(ctx).Debug().Int("revisits", len(revisits)).Msg("Revisit-only pool, skipping search")
			return asRevisits(revisits), nil
		}
		revisits = nil
	}

	found, err := s.searchPool(ctx, repos, p)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Candidate, 0, len(found)+len(revisits))
	position := make(map[uint]int, len(found))
	for _, r := range found {
		if _, dup := position[r.ID]; dup {
			continue
		}
		position[r.ID] = len(pool)
		pool = append(pool, models.Candidate{Restaurant: r})
	}

	if len(revisits) > 0 {
		n := int(math.Ceil(beta * float64(len(revisits))))
		for _, r := range revisits[:n] {
			if i, ok := position[r.ID]; ok {
				pool[i].IsRevisit = true
				continue
			}
			position[r.ID] = len(pool)
			pool = append(pool, models.Candidate{Restaurant: r, IsRevisit: true})
		}
	}

	return keep(pool, func(c models.Candidate) bool { return !exclusions[c.ID] }), nil
}

// searchPool returns the stored rows for the city when there are enough
// fresh ones, otherwise runs the provider search and stores every result.
// A failed search falls back to whatever is stored.
func (s *CandidateService) searchPool(ctx context.Context, repos *repositories.Repositories, p AssembleParams) ([]models.Restaurant, error) {
	provider := s.places.Name()
	cached, err := repos.Restaurants.ForCity(ctx, p.City, provider, s.now().Add(-s.recommend.CacheTTL))
	if err != nil {
		return nil, err
	}
	if len(cached) >= s.recommend.MinPool {
		metrics.RecordCacheLookup(true)
		return cached, nil
	}
	metrics.RecordCacheLookup(false)

	results, err := s.places.SearchNearby(ctx, places.SearchQuery{
		City:         p.City,
		Neighborhood: p.Neighborhood,
		Types:        p.Types,
		Radius:       s.radius,
		MaxResults:   s.maxResult,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("city", p.City).Msg("Candidate search failed, using stored restaurants")
		return repos.Restaurants.ForCity(ctx, p.City, provider, time.Time{})
	}

	out := make([]models.Restaurant, 0, len(results))
	for _, place := range results {
		restaurant, err := s.identity.UpsertPlace(ctx, repos, place, p.City)
		if err != nil {
			return nil, err
		}
		if restaurant != nil {
			out = append(out, *restaurant)
		}
	}
	logging.Ctx(ctx).Debug().Int("results", len(results)).Int("stored", len(out)).Str("city", p.City).Msg("Candidate search stored")
	return out, nil
}

// qualifyingRevisits drops excluded and repeated rows and orders the rest
// best rated first
func qualifyingRevisits(revisits []models.Restaurant, exclusions map[uint]bool) []models.Restaurant {
	seen := make(map[uint]bool, len(revisits))
	out := make([]models.Restaurant, 0, len(revisits))
	for _, r := range revisits {
		if exclusions[r.ID] || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	cs := asRevisits(out)
	sortByRating(cs)
	for i := range cs {
		out[i] = cs[i].Restaurant
	}
	return out
}

func asRevisits(rs []models.Restaurant) []models.Candidate {
	out := make([]models.Candidate, 0, len(rs))
	for _, r := range rs {
		out = append(out, models.Candidate{Restaurant: r, IsRevisit: true})
	}
	return out
}
