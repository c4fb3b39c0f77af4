package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodeForCoversEveryCategory(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryValidation, http.StatusBadRequest},
		{CategoryConfig, http.StatusBadRequest},
		{CategoryAuth, http.StatusUnauthorized},
		{CategoryNotFound, http.StatusNotFound},
		{CategoryAlreadyExists, http.StatusConflict},
		{CategoryRateLimit, http.StatusTooManyRequests},
		{CategoryNetwork, http.StatusBadGateway},
		{CategoryGit, http.StatusBadGateway},
		{CategoryGitHub, http.StatusBadGateway},
		{CategoryLLM, http.StatusBadGateway},
		{CategoryOutline, http.StatusUnprocessableEntity},
		{CategoryGeneration, http.StatusUnprocessableEntity},
		{CategoryFileSystem, http.StatusInternalServerError},
		{CategoryStore, http.StatusInternalServerError},
		{CategoryRuntime, http.StatusServiceUnavailable},
		{CategoryInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewError(tt.category, "x").Build()
		require.Equal(t, tt.want, adapter.StatusCodeFor(err), "category %s", tt.category)
	}
}

func TestStatusCodeForFallbacks(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	require.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	require.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(errors.New("plain failure")))
	require.Equal(t, http.StatusInternalServerError,
		adapter.StatusCodeFor(NewError(ErrorCategory("unmapped"), "x").Build()))
}

func TestFormatErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	t.Run("nil error", func(t *testing.T) {
		require.Equal(t, HTTPErrorResponse{}, adapter.FormatErrorResponse(nil))
	})

	t.Run("unclassified error", func(t *testing.T) {
		resp := adapter.FormatErrorResponse(errors.New("plain failure"))
		require.Equal(t, HTTPErrorResponse{Error: "plain failure"}, resp)
	})

	t.Run("classified error with context", func(t *testing.T) {
		err := ValidationError("invalid repository URL").
			WithContext("repoUrl", "not-a-url").
			Build()

		resp := adapter.FormatErrorResponse(err)
		require.Equal(t, "invalid repository URL", resp.Error)
		require.Equal(t, "validation", resp.Code)
		require.Equal(t, "not-a-url", resp.Details["repoUrl"])
		require.False(t, resp.Retryable)
	})

	t.Run("retryable flag lands in details too", func(t *testing.T) {
		resp := adapter.FormatErrorResponse(GitHubError("tree fetch failed").Build())

		require.True(t, resp.Retryable)
		require.Equal(t, true, resp.Details["retryable"])
	})

	t.Run("payload does not alias the error context", func(t *testing.T) {
		err := RateLimitError("secondary limit hit").
			WithContext("owner", "golang").
			Build()

		resp := adapter.FormatErrorResponse(err)
		require.Equal(t, true, resp.Details["retryable"])

		_, ok := err.Context().Get("retryable")
		require.False(t, ok, "formatting must not write into the error")
	})
}

func TestWriteErrorResponse(t *testing.T) {
	newRequest := func() *http.Request {
		return httptest.NewRequest(http.MethodPost, "/generate-documentation", nil)
	}

	t.Run("nil error writes 200 and no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHTTPErrorAdapter(nil).WriteErrorResponse(w, newRequest(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Body.String())
	})

	t.Run("classified error writes JSON with mapped status", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := RateLimitError("rate limit exceeded").WithContext("reset", "30s").Build()
		NewHTTPErrorAdapter(discardLogger()).WriteErrorResponse(w, newRequest(), err)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp HTTPErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "rate limit exceeded", resp.Error)
		require.Equal(t, "rate_limit", resp.Code)
		require.True(t, resp.Retryable)
		require.Equal(t, "30s", resp.Details["reset"])
	})

	t.Run("unclassified error writes 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHTTPErrorAdapter(discardLogger()).WriteErrorResponse(w, newRequest(), errors.New("plain failure"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.JSONEq(t, `{"error":"plain failure"}`, w.Body.String())
	})

	t.Run("unmarshalable context falls back to a minimal body", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := InternalError("state dump failed").WithContext("ch", make(chan int)).Build()
		NewHTTPErrorAdapter(discardLogger()).WriteErrorResponse(w, newRequest(), err)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, `{"error":"internal error"}`, w.Body.String())
	})

	t.Run("logs at the severity's level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		w := httptest.NewRecorder()
		NewHTTPErrorAdapter(logger).WriteErrorResponse(w, newRequest(), OutlineError("model returned no sections").Build())

		require.Contains(t, buf.String(), "level=WARN")
		require.Contains(t, buf.String(), "[outline:warning] model returned no sections")
	})
}
