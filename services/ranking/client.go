package ranking

import (
	"context"
	"fmt"

	"Campfire/config/environment"
)

// Client sends one prompt to a language model and returns its text
type Client interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// NewClient builds the backend named in config
func NewClient(ctx context.Context, cfg environment.RankingConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown ranking provider %q", cfg.Provider)
	}
}
