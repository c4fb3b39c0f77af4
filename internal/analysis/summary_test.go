package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/llm"
)

func TestSummarize(t *testing.T) {
	mock := &llm.Mock{Response: "  A ledger service for payments.\n"}
	r := &Repository{
		Repository: github.Repository{
			FullName:    "acme/ledger",
			Description: "Transaction ledger",
			Language:    "Go",
			Topics:      []string{"payments"},
		},
		Excerpt: "Stores transactions.",
	}

	got, err := Summarize(context.Background(), mock, r)
	require.NoError(t, err)
	require.Equal(t, "A ledger service for payments.", got)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].User, "Repository: acme/ledger")
	require.Contains(t, calls[0].User, "Primary language: Go")
	require.Contains(t, calls[0].User, "README excerpt:")
	require.Contains(t, calls[0].System, "two or three plain sentences")
}

func TestSummarizeWithoutClient(t *testing.T) {
	_, err := Summarize(context.Background(), nil, &Repository{})
	require.Error(t, err)
	require.True(t, derrors.HasCategory(err, derrors.CategoryLLM), "got %v", err)
}

func TestSummarizePropagatesModelError(t *testing.T) {
	mock := &llm.Mock{Err: errors.New("model offline")}

	_, err := Summarize(context.Background(), mock, &Repository{})
	require.Error(t, err)
}
