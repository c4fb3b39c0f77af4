package config

import (
	"git.home.luguber.info/inful/repowiki/internal/foundation/normalization"
)

// FetchMode enumerates strategies for obtaining a repository's file listing.
type FetchMode string

const (
	// FetchModeAPI walks the repository via the GitHub trees API.
	FetchModeAPI FetchMode = "api"
	// FetchModeClone performs a shallow clone and walks the working tree.
	FetchModeClone FetchMode = "clone"
	// FetchModeAuto uses the API and falls back to a clone when GitHub
	// truncates the tree listing.
	FetchModeAuto FetchMode = "auto"
)

var fetchModeNormalizer = normalization.NewEnumNormalizer("fetch mode", map[string]FetchMode{
	"api":   FetchModeAPI,
	"clone": FetchModeClone,
	"auto":  FetchModeAuto,
}, FetchModeAPI)

// NormalizeFetchMode converts raw input into a typed mode, defaulting to api.
func NormalizeFetchMode(raw string) FetchMode {
	return fetchModeNormalizer.Normalize(raw)
}

// ValidateFetchMode returns the normalized mode or an error naming the valid options.
func ValidateFetchMode(raw string) (FetchMode, error) {
	return fetchModeNormalizer.NormalizeWithValidation(raw)
}
