package analysis

import (
	"context"
	"strings"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/llm"
)

// summaryMaxTokens keeps the summary cheap; it is display text, not content.
const summaryMaxTokens = 256

const summarySystem = "You summarize software repositories. Reply with two or three plain sentences. No markdown, no preamble."

// Summarize asks the model for a short repository description. Callers treat
// a failure as "no summary"; nothing downstream requires one.
func Summarize(ctx context.Context, client llm.Client, r *Repository) (string, error) {
	if client == nil {
		return "", derrors.NewError(derrors.CategoryLLM, "no model configured for summaries").Build()
	}

	var sb strings.Builder
	sb.WriteString("Repository: " + r.FullName + "\n")
	if r.Description != "" {
		sb.WriteString("Description: " + r.Description + "\n")
	}
	if r.Language != "" {
		sb.WriteString("Primary language: " + r.Language + "\n")
	}
	if len(r.Topics) > 0 {
		sb.WriteString("Topics: " + strings.Join(r.Topics, ", ") + "\n")
	}
	if r.Excerpt != "" {
		sb.WriteString("\nREADME excerpt:\n" + r.Excerpt + "\n")
	}
	sb.WriteString("\nSummarize what this repository is and who would use it.")

	out, err := client.Complete(ctx, llm.Prompt{
		System:      summarySystem,
		User:        sb.String(),
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
