package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"Campfire/config/environment"
	"Campfire/logging"
	"Campfire/metrics"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/utils"

	"gorm.io/gorm"
)

// RecommendationResult is what one GetRecommendations call produced
type RecommendationResult struct {
	RequestID       uint                    `json:"request_id"`
	Profile         models.TasteProfile     `json:"taste_profile"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

type RecommendationService struct {
	db         *gorm.DB
	identity   *IdentityService
	candidates *CandidateService
	filter     *FilterService
	ranking    *RankingService
	recommend  environment.RecommendConfig
	now        func() time.Time
}

func NewRecommendationService(db *gorm.DB, identity *IdentityService, candidates *CandidateService, filter *FilterService, ranking *RankingService, cfg environment.RecommendConfig) *RecommendationService {
	return &RecommendationService{
		db:         db,
		identity:   identity,
		candidates: candidates,
		filter:     filter,
		ranking:    ranking,
		recommend:  cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetRecommendations resolves the session's restaurants, builds the taste
// profile, assembles and filters the pool and ranks it. Every write happens
// in one transaction; on failure nothing is kept.
func (s *RecommendationService) GetRecommendations(ctx context.Context, req models.RecommendationRequest) (*RecommendationResult, error) {
	start := time.Now()
	userName := strings.TrimSpace(req.User)
	city := strings.TrimSpace(req.City)
	if userName == "" || city == "" {
		metrics.RecordRecommendation("invalid", time.Since(start))
		return nil, utils.BadRequest("User and city are required")
	}

	alpha := s.recommend.DefaultAlpha
	if req.InputWeight != nil {
		alpha = clamp01(*req.InputWeight)
	}
	beta := s.recommend.DefaultBeta
	if req.RevisitWeight != nil {
		beta = clamp01(*req.RevisitWeight)
	}

	log := logging.Ctx(ctx)
	var result *RecommendationResult
	err := repositories.Transaction(ctx, s.db, func(repos *repositories.Repositories) error {
		var err error
		result, err = s.run(ctx, repos, req, userName, city, alpha, beta)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("user", userName).Str("city", city).Msg("Recommendation request failed")
		metrics.RecordRecommendation("error", time.Since(start))
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to generate recommendations")
	}

	outcome := "ok"
	if len(result.Recommendations) == 0 {
		outcome = "empty"
	}
	metrics.RecordRecommendation(outcome, time.Since(start))
	log.Info().Str("user", userName).Str("city", city).Int("recommendations", len(result.Recommendations)).
		Dur("took", time.Since(start)).Msg("Recommendations generated")
	return result, nil
}

func (s *RecommendationService) run(ctx context.Context, repos *repositories.Repositories, req models.RecommendationRequest, userName, city string, alpha, beta float64) (*RecommendationResult, error) {
	user, err := repos.Users.FindOrCreate(ctx, userName)
	if err != nil {
		return nil, err
	}

	session, err := s.resolveSession(ctx, repos, req, city)
	if err != nil {
		return nil, err
	}

	// session picks count as likes unless the user already labelled them
	labels, err := repos.Preferences.Labels(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range session {
		if _, labelled := labels[r.ID]; labelled {
			continue
		}
		if err := repos.Preferences.Upsert(ctx, user.ID, r.ID, models.PreferenceLike, s.now()); err != nil {
			return nil, err
		}
	}

	liked, err := repos.Preferences.RestaurantsByLabel(ctx, user.ID, models.PreferenceLike)
	if err != nil {
		return nil, err
	}
	disliked, err := repos.Preferences.RestaurantsByLabel(ctx, user.ID, models.PreferenceDislike)
	if err != nil {
		return nil, err
	}
	priorInputs, err := repos.Requests.RestaurantsByType(ctx, user.ID, models.RequestTypeInput)
	if err != nil {
		return nil, err
	}
	pastRecs, err := repos.Requests.RestaurantsByType(ctx, user.ID, models.RequestTypeRecommendation)
	if err != nil {
		return nil, err
	}

	sessionIDs := idSet(session)
	dislikedIDs := idSet(disliked)
	history := uniqueRestaurants(append(append([]models.Restaurant(nil), liked...), priorInputs...), func(r models.Restaurant) bool {
		return !dislikedIDs[r.ID] && !sessionIDs[r.ID]
	})
	revisits := uniqueRestaurants(pastRecs, func(r models.Restaurant) bool {
		return !dislikedIDs[r.ID] && (r.CityHint == "" || models.CityKey(r.CityHint) == models.CityKey(city))
	})

	exclusions := make(map[uint]bool, len(disliked)+len(liked)+len(session))
	for _, group := range [][]models.Restaurant{disliked, liked, session} {
		for _, r := range group {
			exclusions[r.ID] = true
		}
	}
	if beta == 0 {
		for _, r := range revisits {
			exclusions[r.ID] = true
		}
	}

	profile := BuildTasteProfile(history, session, alpha)
	logging.Ctx(ctx).Debug().Int("history", len(history)).Int("session", len(session)).
		Float64("alpha", alpha).Float64("beta", beta).Interface("profile", profile).Msg("Taste profile built")

	pool, err := s.candidates.Assemble(ctx, repos, AssembleParams{
		City:         city,
		Neighborhood: req.Neighborhood,
		Types:        req.RestaurantTypes,
		Exclusions:   exclusions,
		Revisits:     revisits,
		Beta:         beta,
	})
	if err != nil {
		return nil, err
	}
	filtered := s.filter.Apply(pool, exclusions, req.RestaurantTypes)
	metrics.RecommendationPoolSize.Observe(float64(len(filtered)))

	recs, err := s.ranking.Rank(ctx, repos, RankInput{
		City:          city,
		Neighborhood:  req.Neighborhood,
		Types:         req.RestaurantTypes,
		Profile:       profile,
		Candidates:    filtered,
		Session:       session,
		History:       history,
		LikedNames:    restaurantNames(uniqueRestaurants(liked, func(r models.Restaurant) bool { return !sessionIDs[r.ID] })),
		DislikedNames: restaurantNames(disliked),
		Exclusions:    exclusions,
		Alpha:         alpha,
	})
	if err != nil {
		return nil, err
	}

	record := &models.UserRequest{
		UserID:       user.ID,
		City:         city,
		Neighborhood: req.Neighborhood,
	}
	for _, r := range session {
		record.Restaurants = append(record.Restaurants, models.RequestRestaurant{RestaurantID: r.ID, Type: models.RequestTypeInput})
	}
	for _, rec := range recs {
		record.Restaurants = append(record.Restaurants, models.RequestRestaurant{RestaurantID: rec.RestaurantID, Type: models.RequestTypeRecommendation})
	}
	if err := repos.Requests.Create(ctx, record); err != nil {
		return nil, err
	}

	if recs == nil {
		recs = []models.Recommendation{}
	}
	return &RecommendationResult{RequestID: record.ID, Profile: profile, Recommendations: recs}, nil
}

// resolveSession turns place ids and typed names into restaurant rows,
// first-seen order, each row once
func (s *RecommendationService) resolveSession(ctx context.Context, repos *repositories.Repositories, req models.RecommendationRequest, city string) ([]models.Restaurant, error) {
	session, err := s.identity.ResolvePlaceIDs(ctx, repos, req.PlaceIDs, city)
	if err != nil {
		return nil, err
	}
	for _, name := range req.InputRestaurants {
		r, err := s.identity.ResolveName(ctx, repos, name, city, models.ProviderManual)
		if err != nil {
			return nil, err
		}
		if r != nil {
			session = append(session, *r)
		}
	}
	return uniqueRestaurants(session, nil), nil
}

func idSet(rs []models.Restaurant) map[uint]bool {
	out := make(map[uint]bool, len(rs))
	for _, r := range rs {
		out[r.ID] = true
	}
	return out
}

// uniqueRestaurants keeps the first row per id that passes pred (nil keeps
// everything)
func uniqueRestaurants(rs []models.Restaurant, pred func(models.Restaurant) bool) []models.Restaurant {
	seen := make(map[uint]bool, len(rs))
	out := make([]models.Restaurant, 0, len(rs))
	for _, r := range rs {
		if seen[r.ID] || (pred != nil && !pred(r)) {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
