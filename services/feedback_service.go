package services

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"Campfire/logging"
	"Campfire/models"
	"Campfire/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	suggestionsCollection = "suggestions"
	votesCollection       = "votes"
	maxSuggestions        = 200
)

var errSuggestionNotFound = utils.NewCustomError(http.StatusNotFound, "Suggestion not found")

// FeedbackService runs the community suggestion board. A nil client means
// Firebase isn't configured and every call answers 503.
type FeedbackService struct {
	FirestoreClient *firestore.Client
	now             func() time.Time
}

func NewFeedbackService(client *firestore.Client) *FeedbackService {
	return &FeedbackService{
		FirestoreClient: client,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *FeedbackService) enabled() error {
	if s.FirestoreClient == nil {
		return utils.NewCustomError(http.StatusServiceUnavailable, "Feedback board is not configured")
	}
	return nil
}

// ListSuggestions returns the board, highest score first. With a userName
// each suggestion carries that user's own vote.
func (s *FeedbackService) ListSuggestions(ctx context.Context, userName string) ([]models.Suggestion, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	iter := s.FirestoreClient.Collection(suggestionsCollection).
		OrderBy("createdAt", firestore.Desc).Limit(maxSuggestions).Documents(ctx)
	defer iter.Stop()

	suggestions := []models.Suggestion{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Error fetching suggestions")
			return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to fetch suggestions")
		}
		var suggestion models.Suggestion
		if err := doc.DataTo(&suggestion); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("id", doc.Ref.ID).Msg("Error parsing suggestion")
			return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to parse suggestion data")
		}
		suggestion.ID = doc.Ref.ID
		suggestions = append(suggestions, suggestion)
	}

	if userName = strings.TrimSpace(userName); userName != "" {
		votes, err := s.userVotes(ctx, userName)
		if err != nil {
			return nil, err
		}
		attachVotes(suggestions, votes)
	}

	rankSuggestions(suggestions)
	return suggestions, nil
}

// attachVotes sets each suggestion's UserVote; suggestions the user never
// voted on read 0
func attachVotes(suggestions []models.Suggestion, votes map[string]int64) {
	for i := range suggestions {
		suggestions[i].UserVote = votes[suggestions[i].ID]
	}
}

// rankSuggestions orders by score, highest first. Input arrives newest
// first and the sort is stable, so ties stay newest first.
func rankSuggestions(suggestions []models.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
}

// userVotes maps suggestion id to the user's vote in one collection-group query
func (s *FeedbackService) userVotes(ctx context.Context, userName string) (map[string]int64, error) {
	iter := s.FirestoreClient.CollectionGroup(votesCollection).Where("userName", "==", userName).Documents(ctx)
	defer iter.Stop()

	votes := make(map[string]int64)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return votes, nil
		}
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("user", userName).Msg("Error fetching votes")
			return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to fetch votes")
		}
		var vote models.Vote
		if err := doc.DataTo(&vote); err != nil {
			continue
		}
		if parent := doc.Ref.Parent.Parent; parent != nil {
			votes[parent.ID] = vote.VoteType
		}
	}
}

func (s *FeedbackService) CreateSuggestion(ctx context.Context, req models.CreateSuggestionRequest) (*models.Suggestion, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(req.UserName)
	content := strings.TrimSpace(req.Content)
	if userName == "" || content == "" {
		return nil, utils.BadRequest("User name and content are required")
	}

	suggestion := models.Suggestion{
		UserName:  userName,
		Content:   content,
		CreatedAt: s.now(),
	}
	ref := s.FirestoreClient.Collection(suggestionsCollection).NewDoc()
	if _, err := ref.Set(ctx, suggestion); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Error saving suggestion")
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to save suggestion")
	}
	suggestion.ID = ref.ID
	return &suggestion, nil
}

// Vote applies an up or down vote. Repeating the current vote withdraws it;
// the opposite vote replaces it.
func (s *FeedbackService) Vote(ctx context.Context, req models.VoteRequest) (*models.VoteResult, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(req.UserName)
	if userName == "" || req.SuggestionID == "" {
		return nil, utils.BadRequest("User name and suggestion id are required")
	}
	if req.VoteType != 1 && req.VoteType != -1 {
		return nil, utils.BadRequest("Vote type must be 1 or -1")
	}

	suggestionRef := s.FirestoreClient.Collection(suggestionsCollection).Doc(req.SuggestionID)
	voteRef := suggestionRef.Collection(votesCollection).Doc(userName)

	var newScore int64
	err := s.FirestoreClient.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		suggestionDoc, err := tx.Get(suggestionRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errSuggestionNotFound
			}
			return err
		}
		var suggestion models.Suggestion
		if err := suggestionDoc.DataTo(&suggestion); err != nil {
			return err
		}

		var current int64
		voteDoc, err := tx.Get(voteRef)
		switch {
		case err == nil:
			var vote models.Vote
			if err := voteDoc.DataTo(&vote); err != nil {
				return err
			}
			current = vote.VoteType
		case status.Code(err) != codes.NotFound:
			return err
		}

		next, delta := applyVote(current, req.VoteType)
		newScore = suggestion.Score + delta
		if err := tx.Update(suggestionRef, []firestore.Update{{Path: "score", Value: newScore}}); err != nil {
			return err
		}
		if next == 0 {
			return tx.Delete(voteRef)
		}
		return tx.Set(voteRef, models.Vote{UserName: userName, VoteType: next, UpdatedAt: s.now()})
	})
	if err != nil {
		if errors.Is(err, errSuggestionNotFound) {
			return nil, errSuggestionNotFound
		}
		logging.Ctx(ctx).Error().Err(err).Str("suggestion", req.SuggestionID).Msg("Error recording vote")
		return nil, utils.NewCustomError(http.StatusInternalServerError, "Failed to record vote")
	}
	return &models.VoteResult{Success: true, NewScore: newScore}, nil
}

// applyVote returns the user's vote after casting vote on top of current
// and the resulting change to the score
func applyVote(current, vote int64) (next, delta int64) {
	switch current {
	case vote:
		return 0, -vote
	case 0:
		return vote, vote
	default:
		return vote, vote - current
	}
}
