package generate

import (
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
)

// hintRule contributes extra prompt context when the node title contains
// one of its keys.
type hintRule struct {
	keys  []string
	build func(r *analysis.Repository) string
}

// hintRules run in order; the first matching rule wins. Builders return ""
// when the analysis has nothing to contribute, which is the same as no
// match.
var hintRules = []hintRule{
	{
		keys:  []string{"getting started", "installation", "install", "setup", "quick start"},
		build: setupHint,
	},
	{
		keys:  []string{"architecture", "design", "component", "structure"},
		build: architectureHint,
	},
	{
		keys:  []string{"api", "endpoint"},
		build: apiHint,
	},
	{
		keys:  []string{"deployment", "production", "deploy"},
		build: deploymentHint,
	},
}

// hintFor returns extra context for a node title, or "" when no rule
// matches. Matching is a case-insensitive substring check.
func hintFor(title string, r *analysis.Repository) string {
	lowered := strings.ToLower(title)
	for _, rule := range hintRules {
		for _, key := range rule.keys {
			if strings.Contains(lowered, key) {
				return rule.build(r)
			}
		}
	}
	return ""
}

func setupHint(r *analysis.Repository) string {
	var lines []string
	if r.Setup.Install != "" {
		lines = append(lines, "Install: "+r.Setup.Install)
	}
	if r.Setup.Run != "" {
		lines = append(lines, "Run: "+r.Setup.Run)
	}
	if r.Setup.Test != "" {
		lines = append(lines, "Test: "+r.Setup.Test)
	}
	return hintBlock("Setup commands for this repository:", lines)
}

func architectureHint(r *analysis.Repository) string {
	var lines []string
	if len(r.Stack.Languages) > 0 {
		lines = append(lines, "Languages: "+strings.Join(r.Stack.Languages, ", "))
	}
	if len(r.Stack.Frontend) > 0 {
		lines = append(lines, "Frontend: "+strings.Join(r.Stack.Frontend, ", "))
	}
	if len(r.Stack.Backend) > 0 {
		lines = append(lines, "Backend: "+strings.Join(r.Stack.Backend, ", "))
	}
	if len(r.Stack.Database) > 0 {
		lines = append(lines, "Database: "+strings.Join(r.Stack.Database, ", "))
	}
	if r.Domain != "" {
		lines = append(lines, "Domain: "+r.Domain)
	}
	return hintBlock("Technology stack:", lines)
}

func apiHint(r *analysis.Repository) string {
	var lines []string
	if len(r.Stack.Backend) > 0 {
		lines = append(lines, "Backend: "+strings.Join(r.Stack.Backend, ", "))
	}
	if len(r.Stack.Frontend) > 0 {
		lines = append(lines, "Frontend: "+strings.Join(r.Stack.Frontend, ", "))
	}
	if len(r.Stack.Database) > 0 {
		lines = append(lines, "Database: "+strings.Join(r.Stack.Database, ", "))
	}
	return hintBlock("Interface-relevant stack:", lines)
}

func deploymentHint(r *analysis.Repository) string {
	var lines []string
	if len(r.Stack.DevOps) > 0 {
		lines = append(lines, "DevOps tooling: "+strings.Join(r.Stack.DevOps, ", "))
	}
	if r.License != "" {
		lines = append(lines, "License: "+r.License)
	}
	return hintBlock("Operations context:", lines)
}

func hintBlock(header string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return header + "\n" + strings.Join(lines, "\n")
}
