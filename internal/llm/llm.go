// Package llm abstracts the completion backends used for outline synthesis
// and section content generation.
package llm

import (
	"context"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

// Client is a completion backend. Implementations must classify throttling
// responses as rate-limit errors so callers can apply the cooldown retry.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	ModelName() string
}

// Prompt is a single completion request. A zero MaxTokens means the
// client's configured default.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// New builds the provider selected by cfg.
func New(cfg config.LLMConfig) (Client, error) {
	switch config.NormalizeLLMProvider(string(cfg.Provider)) {
	case config.LLMProviderOpenAI:
		return NewOpenAIClient(cfg)
	case config.LLMProviderMock:
		return NewMock(), nil
	default:
		return NewAnthropicClient(cfg)
	}
}

// IsRateLimited reports whether err signals model throttling.
func IsRateLimited(err error) bool {
	return derrors.HasCategory(err, derrors.CategoryRateLimit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
