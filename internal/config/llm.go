package config

import (
	"git.home.luguber.info/inful/repowiki/internal/foundation/normalization"
)

// LLMProvider enumerates supported model backends.
type LLMProvider string

const (
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderMock      LLMProvider = "mock"
)

var llmProviderNormalizer = normalization.NewEnumNormalizer("llm provider", map[string]LLMProvider{
	"anthropic": LLMProviderAnthropic,
	"claude":    LLMProviderAnthropic,
	"openai":    LLMProviderOpenAI,
	"mock":      LLMProviderMock,
}, LLMProviderAnthropic)

// NormalizeLLMProvider converts raw input into a typed provider, defaulting to anthropic.
func NormalizeLLMProvider(raw string) LLMProvider {
	return llmProviderNormalizer.Normalize(raw)
}

// ValidateLLMProvider returns the normalized provider or an error naming the valid options.
func ValidateLLMProvider(raw string) (LLMProvider, error) {
	return llmProviderNormalizer.NormalizeWithValidation(raw)
}

func defaultModelFor(provider LLMProvider) string {
	switch provider {
	case LLMProviderOpenAI:
		return "gpt-4o-mini"
	case LLMProviderMock:
		return "mock"
	default:
		return "claude-sonnet-4-5"
	}
}
