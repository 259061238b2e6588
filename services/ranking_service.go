package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"Campfire/config/environment"
	"Campfire/logging"
	"Campfire/metrics"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/utils"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// RankingCapability is the language-model side of ranking. Indexes in
// RankedRef are 1-based positions in the prompt's candidate list.
type RankingCapability interface {
	RankCandidates(ctx context.Context, prompt string) ([]models.RankedRef, error)
	SuggestRestaurants(ctx context.Context, prompt string) ([]models.NamedSuggestion, error)
}

// RankInput is everything the ranker shows the model for one request
type RankInput struct {
	City          string
	Neighborhood  string
	Types         []string
	Profile       models.TasteProfile
	Candidates    []models.Candidate
	Session       []models.Restaurant
	History       []models.Restaurant
	LikedNames    []string
	DislikedNames []string
	Exclusions    map[uint]bool
	Alpha         float64
}

type RankingService struct {
	capability RankingCapability
	identity   *IdentityService
	n          int
	fallback   bool
}

func NewRankingService(capability RankingCapability, identity *IdentityService, cfg environment.RankingConfig) *RankingService {
	n := cfg.NumRecommendations
	if n <= 0 {
		n = 3
	}
	return &RankingService{
		capability: capability,
		identity:   identity,
		n:          n,
		fallback:   cfg.FreeTextFallback,
	}
}

// Rank returns at most n recommendations drawn from the candidates. Model
// failures give an empty result; only persistence errors from the free-text
// fallback are returned.
func (s *RankingService) Rank(ctx context.Context, repos *repositories.Repositories, in RankInput) ([]models.Recommendation, error) {
	log := logging.Ctx(ctx)
	if len(in.Candidates) == 0 {
		if !s.fallback {
			metrics.RecordRanking("empty")
			return nil, nil
		}
		return s.suggest(ctx, repos, in)
	}

	prompt, err := s.render("rank.tmpl", s.rankPromptData(in))
	if err != nil {
		return nil, err
	}
	refs, err := s.capability.RankCandidates(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Int("candidates", len(in.Candidates)).Msg("Ranking failed")
		metrics.RecordRanking("error")
		return nil, nil
	}

	recs := reconcile(ctx, refs, in.Candidates, s.n)
	if len(recs) == 0 {
		metrics.RecordRanking("empty")
		return nil, nil
	}
	metrics.RecordRanking("ranked")
	return recs, nil
}

// reconcile maps model picks back onto candidate records. Unknown and
// repeated indexes are dropped.
func reconcile(ctx context.Context, refs []models.RankedRef, candidates []models.Candidate, n int) []models.Recommendation {
	seen := make(map[int]bool, len(refs))
	recs := make([]models.Recommendation, 0, n)
	for _, ref := range refs {
		if len(recs) == n {
			break
		}
		if ref.Index < 1 || ref.Index > len(candidates) {
			logging.Ctx(ctx).Warn().Int("index", ref.Index).Int("candidates", len(candidates)).Msg("Ranking referenced an unknown candidate")
			metrics.RankingDropped.Inc()
			continue
		}
		if seen[ref.Index] {
			metrics.RankingDropped.Inc()
			continue
		}
		seen[ref.Index] = true

		c := candidates[ref.Index-1]
		description := ref.Description
		if description == "" {
			description = c.EditorialSummary
		}
		recs = append(recs, models.Recommendation{
			RestaurantID: c.ID,
			PlaceID:      c.PlaceID,
			Slug:         c.Slug,
			Name:         c.Name,
			Address:      c.Location,
			Rating:       c.Rating,
			PriceLevel:   c.PriceLevel,
			Description:  description,
			Reason:       ref.Reason,
			IsRevisit:    c.IsRevisit,
		})
	}
	return recs
}

// suggest asks for free-text picks and stores them as ai-generated rows
func (s *RankingService) suggest(ctx context.Context, repos *repositories.Repositories, in RankInput) ([]models.Recommendation, error) {
	log := logging.Ctx(ctx)
	prompt, err := s.render("suggest.tmpl", suggestPromptData{
		N:            s.n,
		City:         in.City,
		Neighborhood: in.Neighborhood,
		Types:        strings.Join(in.Types, ", "),
		Liked:        append(append([]string(nil), in.LikedNames...), restaurantNames(in.Session)...),
		Disliked:     in.DislikedNames,
	})
	if err != nil {
		return nil, err
	}
	suggestions, err := s.capability.SuggestRestaurants(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Free-text suggestions failed")
		metrics.RecordRanking("error")
		return nil, nil
	}

	seen := make(map[uint]bool, len(suggestions))
	recs := make([]models.Recommendation, 0, s.n)
	for _, sg := range suggestions {
		if len(recs) == s.n {
			break
		}
		name := utils.SanitizeName(sg.Name)
		r, err := s.identity.ResolveName(ctx, repos, name, in.City, models.ProviderAIGenerated)
		if err != nil {
			return nil, err
		}
		if r == nil || seen[r.ID] || in.Exclusions[r.ID] {
			continue
		}
		seen[r.ID] = true
		recs = append(recs, models.Recommendation{
			RestaurantID: r.ID,
			PlaceID:      r.PlaceID,
			Slug:         r.Slug,
			Name:         r.Name,
			Address:      r.Location,
			Rating:       r.Rating,
			PriceLevel:   r.PriceLevel,
			Description:  sg.Description,
			Reason:       sg.Reason,
		})
	}

	if len(recs) == 0 {
		metrics.RecordRanking("empty")
		return nil, nil
	}
	metrics.RecordRanking("fallback")
	return recs, nil
}

func (s *RankingService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type promptLine struct {
	Index int
	Name  string
	Meta  string
}

type rankPromptData struct {
	N                int
	City             string
	Neighborhood     string
	Types            string
	PriceLevel       string
	MinRating        string
	TopCuisines      string
	DineIn           string
	Reservable       string
	Session          []promptLine
	History          []promptLine
	AlphaInstruction string
	Liked            string
	Disliked         string
	Candidates       []promptLine
}

type suggestPromptData struct {
	N            int
	City         string
	Neighborhood string
	Types        string
	Liked        []string
	Disliked     []string
}

func (s *RankingService) rankPromptData(in RankInput) rankPromptData {
	data := rankPromptData{
		N:            s.n,
		City:         in.City,
		Neighborhood: in.Neighborhood,
		Types:        strings.Join(in.Types, ", "),
		PriceLevel:   orDefault(in.Profile.PreferredPriceLevel, "any"),
		MinRating:    "any",
		TopCuisines:  orDefault(strings.Join(in.Profile.TopCuisineTypes, ", "), "any"),
		DineIn:       boolText(in.Profile.PrefersDineIn),
		Reservable:   boolText(in.Profile.PrefersReservable),
		Liked:        orDefault(strings.Join(in.LikedNames, ", "), "none"),
		Disliked:     orDefault(strings.Join(in.DislikedNames, ", "), "none"),
	}
	if in.Profile.MinRating != nil {
		data.MinRating = formatRating(*in.Profile.MinRating)
	}

	switch alpha := clamp01(in.Alpha); {
	case alpha >= 0.7:
		data.AlphaInstruction = "The user's current session inputs should heavily influence your selection."
	case alpha <= 0.3:
		data.AlphaInstruction = "Draw primarily from the user's historical taste profile."
	}

	for _, r := range in.Session {
		data.Session = append(data.Session, promptLine{Name: r.Name, Meta: profileMeta(r)})
	}
	for _, r := range in.History {
		data.History = append(data.History, promptLine{Name: r.Name, Meta: profileMeta(r)})
	}
	for i, c := range in.Candidates {
		data.Candidates = append(data.Candidates, promptLine{Index: i + 1, Name: c.Name, Meta: candidateMeta(c.Restaurant)})
	}
	return data
}

func candidateMeta(r models.Restaurant) string {
	var parts []string
	if r.PrimaryType != "" {
		parts = append(parts, r.PrimaryType)
	}
	if r.PriceLevel != "" {
		parts = append(parts, r.PriceLevel)
	}
	if r.Rating != nil {
		parts = append(parts, "rating: "+formatRating(*r.Rating))
	}
	if r.EditorialSummary != "" {
		parts = append(parts, r.EditorialSummary)
	}
	return strings.Join(parts, ", ")
}

func profileMeta(r models.Restaurant) string {
	var parts []string
	if r.PrimaryType != "" {
		parts = append(parts, r.PrimaryType)
	}
	if r.PriceLevel != "" {
		parts = append(parts, r.PriceLevel)
	}
	if r.Rating != nil {
		parts = append(parts, "rating: "+formatRating(*r.Rating))
	}
	if r.ServesDineIn != nil && *r.ServesDineIn {
		parts = append(parts, "dine-in")
	}
	if r.Reservable != nil && *r.Reservable {
		parts = append(parts, "reservable")
	}
	if r.EditorialSummary != "" {
		parts = append(parts, r.EditorialSummary)
	}
	return strings.Join(parts, ", ")
}

func restaurantNames(rs []models.Restaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolText(b *bool) string {
	if b == nil {
		return "unknown"
	}
	return strconv.FormatBool(*b)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
