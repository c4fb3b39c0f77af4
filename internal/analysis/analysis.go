package analysis

import (
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/github"
)

// TechStack is the best-effort technology guess for a repository, grouped
// the way section hints consume it. Lists keep detection order and may be
// empty.
type TechStack struct {
	Languages []string `json:"languages"`
	Frontend  []string `json:"frontend"`
	Backend   []string `json:"backend"`
	Database  []string `json:"database"`
	DevOps    []string `json:"devops"`
}

// SetupCommands are guessed from the root manifests; any field may be empty.
type SetupCommands struct {
	Install string `json:"install"`
	Run     string `json:"run"`
	Test    string `json:"test"`
}

// Repository is the analyzed repository: hosting metadata plus everything
// derived locally. Built once per request, immutable afterwards.
type Repository struct {
	github.Repository

	Domain  string        `json:"domain"`
	Stack   TechStack     `json:"tech_stack"`
	Setup   SetupCommands `json:"setup_commands"`
	Summary string        `json:"summary,omitempty"`

	// Prompt context only, never serialized into responses.
	Excerpt   string            `json:"-"`
	DocLinks  []string          `json:"-"`
	Manifests map[string]string `json:"-"`
}

// Analyze derives the repository analysis from a fetch bundle. Heuristics
// only; Summarize adds the model-written summary separately.
func Analyze(bundle *github.Bundle) *Repository {
	r := &Repository{Repository: bundle.Repository}

	r.Excerpt = excerpt(readmeText(bundle.Readme))
	r.DocLinks = docLinks(bundle.Readme)
	r.Manifests = bundle.Manifests

	surface := buildSurface(bundle, r.Excerpt)
	r.Stack = detectStack(bundle, surface)
	r.Setup = guessSetup(bundle.TopLevel)
	r.Domain = guessDomain(bundle.Repository.Description, bundle.Repository.Topics)
	return r
}

// buildSurface joins everything worth keyword-scanning, lowercased once so
// the token matcher never has to fold case.
func buildSurface(bundle *github.Bundle, excerpt string) string {
	parts := []string{
		bundle.Repository.Description,
		strings.Join(bundle.Repository.Topics, " "),
		excerpt,
	}
	for _, content := range bundle.Manifests {
		parts = append(parts, content)
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}
