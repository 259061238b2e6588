package services

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"Campfire/logging"
	"Campfire/models"
	"Campfire/repositories"
	"Campfire/utils"

	"gorm.io/gorm"
)

// HistorySourcePreference marks history entries that only exist as a label
const HistorySourcePreference = "preference"

// UserService manages a user's restaurant labels and dining history
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SavePreferences upserts every label in one transaction. An unknown
// restaurant rejects the whole batch.
func (s *UserService) SavePreferences(ctx context.Context, req models.SavePreferencesRequest) (int, error) {
	userName := strings.TrimSpace(req.User)
	if userName == "" {
		return 0, utils.BadRequest("User is required")
	}
	for _, p := range req.Preferences {
		if !models.ValidPreference(p.Preference) {
			return 0, utils.BadRequest(fmt.Sprintf("Invalid preference %q", p.Preference))
		}
	}

	err := repositories.Transaction(ctx, s.db, func(repos *repositories.Repositories) error {
		user, err := repos.Users.FindOrCreate(ctx, userName)
		if err != nil {
			return err
		}
		for _, p := range req.Preferences {
			restaurant, err := repos.Restaurants.FindByID(ctx, p.RestaurantID)
			if err != nil {
				return err
			}
			if restaurant == nil {
				return utils.NewCustomError(http.StatusNotFound, fmt.Sprintf("Restaurant %d not found", p.RestaurantID))
			}
			if err := repos.Preferences.Upsert(ctx, user.ID, p.RestaurantID, p.Preference, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if utils.StatusOf(err) != http.StatusInternalServerError {
			return 0, err
		}
		logging.Ctx(ctx).Error().Err(err).Str("user", userName).Msg("Error saving preferences")
		return 0, utils.NewCustomError(http.StatusInternalServerError, "Failed to save preferences")
	}
	return len(req.Preferences), nil
}

// GetHistory lists everything the user has entered or been recommended,
// newest request first, followed by restaurants they only labelled. Each
// restaurant appears once with its current label (neutral when unset).
func (s *UserService) GetHistory(ctx context.Context, userName string) ([]models.HistoryEntry, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, utils.BadRequest("Name is required")
	}

	repos := repositories.New(s.db)
	entries, err := s.history(ctx, repos, userName)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user", userName).Msg("Error loading history")
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to load history")
	}
	return entries, nil
}

func (s *UserService) history(ctx context.Context, repos *repositories.Repositories, userName string) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	user, err := repos.Users.FindByName(ctx, userName)
	if err != nil || user == nil {
		return entries, err
	}

	labels, err := repos.Preferences.Labels(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	label := func(id uint) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return models.PreferenceNeutral
	}

	rows, err := repos.Requests.History(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(rows)+len(labels))
	for _, row := range rows {
		if seen[row.RestaurantID] {
			continue
		}
		seen[row.RestaurantID] = true
		entries = append(entries, models.HistoryEntry{
			Restaurant: row.Restaurant,
			Preference: label(row.RestaurantID),
			Source:     row.Type,
		})
	}

	var labelledOnly []uint
	for id := range labels {
		if !seen[id] {
			labelledOnly = append(labelledOnly, id)
		}
	}
	// map order is random; keep the listing stable
	slices.Sort(labelledOnly)
	restaurants, err := repos.Restaurants.FindByIDs(ctx, labelledOnly)
	if err != nil {
		return nil, err
	}
	for _, r := range restaurants {
		entries = append(entries, models.HistoryEntry{
			Restaurant: r,
			Preference: label(r.ID),
			Source:     HistorySourcePreference,
		})
	}
	return entries, nil
}
