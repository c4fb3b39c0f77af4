package generate

import (
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/outline"
)

const generateSystem = `You write technical documentation for software repositories.
Use ONLY the supplied context. When the context does not contain the information a section needs, state what is missing instead of inventing detail.
Reply in markdown with an H1 matching the requested title. No preamble, no closing remarks.`

// generateUser assembles the per-node prompt: repository context first,
// then the section request and any keyword hint. Manifests render in name
// order so the same inputs always produce the same prompt.
func generateUser(r *analysis.Repository, e outline.Entry, hint string) string {
	var sb strings.Builder
	sb.WriteString("Repository: " + r.FullName + "\n")
	if r.Description != "" {
		sb.WriteString("Description: " + r.Description + "\n")
	}
	if r.Domain != "" {
		sb.WriteString("Domain: " + r.Domain + "\n")
	}
	if len(r.Stack.Languages) > 0 {
		sb.WriteString("Languages: " + strings.Join(r.Stack.Languages, ", ") + "\n")
	}
	if r.Summary != "" {
		sb.WriteString("Summary: " + r.Summary + "\n")
	}
	if r.Excerpt != "" {
		sb.WriteString("\nREADME excerpt:\n" + r.Excerpt + "\n")
	}
	for _, name := range slices.Sorted(maps.Keys(r.Manifests)) {
		sb.WriteString("\n" + name + ":\n" + r.Manifests[name] + "\n")
	}

	sb.WriteString("\nWrite the \"" + e.Title + "\" documentation section.\n")
	sb.WriteString("Breadcrumb: " + e.Breadcrumb + "\n")
	if e.Subsection != "" {
		sb.WriteString("This is a subsection of \"" + e.Section + "\".\n")
	}
	if hint != "" {
		sb.WriteString("\n" + hint + "\n")
	}
	return sb.String()
}
