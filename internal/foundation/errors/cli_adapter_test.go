package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeForMapping(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, discardLogger())

	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryValidation, 2},
		{CategoryConfig, 7},
		{CategoryAuth, 5},
		{CategoryNetwork, 8},
		{CategoryGit, 8},
		{CategoryGitHub, 8},
		{CategoryRateLimit, 8},
		{CategoryLLM, 8},
		{CategoryOutline, 11},
		{CategoryGeneration, 11},
		{CategoryFileSystem, 11},
		{CategoryStore, 11},
		{CategoryRuntime, 12},
		{CategoryInternal, 10},
		// Categories without a dedicated code fall through to 1.
		{CategoryNotFound, 1},
		{CategoryAlreadyExists, 1},
	}
	for _, tt := range tests {
		err := NewError(tt.category, "x").Build()
		require.Equal(t, tt.want, adapter.ExitCodeFor(err), "category %s", tt.category)
	}

	require.Equal(t, 0, adapter.ExitCodeFor(nil))
	require.Equal(t, 1, adapter.ExitCodeFor(errors.New("plain failure")))
}

func TestFormatErrorQuiet(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, discardLogger())

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unclassified", errors.New("plain failure"), "Error: plain failure"},
		{"validation shows message", ValidationError("invalid repository URL").Build(), "Error: invalid repository URL"},
		{"config shows message", ConfigError("github.token is required").Build(), "Error: github.token is required"},
		{"not found shows message", NotFoundError("run not found").Build(), "Error: run not found"},
		{"store collapses", StoreError("row scan failed").Build(), "Internal error occurred (use -v for details)"},
		{"internal collapses", InternalError("nil pipeline").Build(), "Internal error occurred (use -v for details)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, adapter.FormatError(tt.err), tt.name)
	}
}

func TestFormatErrorVerbose(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, discardLogger())

	err := WrapError(errors.New("disk I/O error"), CategoryStore, "row scan failed").Build()
	require.Equal(t, "[store:error] row scan failed: disk I/O error", adapter.FormatError(err))
}

func TestShouldLogFiltersBySeverity(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, discardLogger())
	verbose := NewCLIErrorAdapter(true, discardLogger())

	fatal := ConfigError("github.token is required").Build()
	degraded := OutlineError("model returned no sections").Build()
	plain := errors.New("plain failure")

	require.True(t, quiet.shouldLog(fatal))
	require.False(t, quiet.shouldLog(degraded), "non-fatal classified errors stay out of quiet logs")
	require.True(t, quiet.shouldLog(plain))

	require.True(t, verbose.shouldLog(fatal))
	require.True(t, verbose.shouldLog(degraded))
	require.True(t, verbose.shouldLog(plain))
}

func TestLogErrorCarriesClassification(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewCLIErrorAdapter(true, logger)

	adapter.logError(GitHubError("tree fetch failed").Build())
	out := buf.String()
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "category=github")
	require.Contains(t, out, "retryable=true")

	buf.Reset()
	adapter.logError(RateLimitError("secondary limit hit").Build())
	out = buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "category=rate_limit")

	buf.Reset()
	adapter.logError(errors.New("plain failure"))
	require.Contains(t, buf.String(), "Unclassified error")
}
