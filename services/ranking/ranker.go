package ranking

import (
	"context"
	"errors"
	"time"

	"Campfire/config/environment"
	"Campfire/models"
	"Campfire/utils"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrEmptyResponse means the model answered with nothing usable
var ErrEmptyResponse = errors.New("empty ranking response")

// Ranker owns the text protocol between prompts and model output
type Ranker struct {
	client    Client
	breaker   *gobreaker.CircuitBreaker[string]
	maxTokens int
	timeout   time.Duration
}

func NewRanker(client Client, cfg environment.RankingConfig, breaker environment.BreakerConfig) *Ranker {
	return &Ranker{
		client:    client,
		breaker:   utils.NewBreaker[string]("ranking-"+cfg.Provider, breaker, nil),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
}

// RankCandidates returns the model's picks as 1-based indexes into the
// candidate list the prompt carried
func (r *Ranker) RankCandidates(ctx context.Context, prompt string) ([]models.RankedRef, error) {
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseRankedLines(text), nil
}

// SuggestRestaurants returns free-text picks when there is no pool
func (r *Ranker) SuggestRestaurants(ctx context.Context, prompt string) ([]models.NamedSuggestion, error) {
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseSuggestionLines(text), nil
}

func (r *Ranker) complete(ctx context.Context, prompt string) (string, error) {
	return r.breaker.Execute(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		text, err := r.client.Complete(callCtx, prompt, r.maxTokens)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})
}
