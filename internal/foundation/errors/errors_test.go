package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *ClassifiedError
		want string
	}{
		{
			name: "without cause",
			err:  ConfigError("github.token is required").Build(),
			want: "[config:fatal] github.token is required",
		},
		{
			name: "with cause",
			err:  WrapError(errors.New("status 502"), CategoryGitHub, "tree fetch failed").Build(),
			want: "[github:error] tree fetch failed: status 502",
		},
		{
			name: "warning severity",
			err:  OutlineError("model returned no sections").Build(),
			want: "[outline:warning] model returned no sections",
		},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.err.Error(), tt.name)
	}
}

func TestBuilderDefaults(t *testing.T) {
	err := NewError(CategoryStore, "row scan failed").Build()

	require.Equal(t, CategoryStore, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.Equal(t, RetryNever, err.RetryStrategy())
	require.Nil(t, err.Cause())
	require.NotNil(t, err.Context())
}

func TestBuilderFluentChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(cause, CategoryNetwork, "tarball download failed").
		Warning().
		Retryable().
		WithContext("host", "codeload.github.com").
		WithContext("attempt", 2).
		Build()

	require.Equal(t, CategoryNetwork, err.Category())
	require.Equal(t, SeverityWarning, err.Severity())
	require.Equal(t, RetryBackoff, err.RetryStrategy())
	require.ErrorIs(t, err, cause)

	host, ok := err.Context().GetString("host")
	require.True(t, ok)
	require.Equal(t, "codeload.github.com", host)

	attempt, ok := err.Context().Get("attempt")
	require.True(t, ok)
	require.Equal(t, 2, attempt)
}

// Wrapping a classified error under a new category re-classifies it: the
// helpers read the outermost classification and never walk the cause chain.
func TestWrappingReclassifies(t *testing.T) {
	inner := NotFoundError("run not found").Build()
	outer := WrapError(inner, CategoryStore, "lookup failed").Build()

	require.True(t, HasCategory(outer, CategoryStore))
	require.False(t, HasCategory(outer, CategoryNotFound))
	require.Equal(t, CategoryStore, GetCategory(outer))

	// The inner error is still reachable for callers that want it.
	require.ErrorIs(t, outer, inner)
	var c *ClassifiedError
	require.True(t, errors.As(outer.Cause(), &c))
	require.Equal(t, CategoryNotFound, c.Category())
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name      string
		builder   *ErrorBuilder
		category  ErrorCategory
		severity  ErrorSeverity
		retry     RetryStrategy
		canRetry  bool
		transient bool
	}{
		{"config", ConfigError("x"), CategoryConfig, SeverityFatal, RetryNever, false, false},
		{"validation", ValidationError("x"), CategoryValidation, SeverityFatal, RetryNever, false, false},
		{"auth", AuthError("x"), CategoryAuth, SeverityError, RetryUserAction, false, false},
		{"not found", NotFoundError("x"), CategoryNotFound, SeverityError, RetryNever, false, false},
		{"network", NetworkError("x"), CategoryNetwork, SeverityError, RetryBackoff, true, true},
		{"git", GitError("x"), CategoryGit, SeverityError, RetryBackoff, true, true},
		{"github", GitHubError("x"), CategoryGitHub, SeverityError, RetryBackoff, true, true},
		{"rate limit", RateLimitError("x"), CategoryRateLimit, SeverityWarning, RetryRateLimit, true, true},
		{"llm", LLMError("x"), CategoryLLM, SeverityError, RetryBackoff, true, true},
		{"outline", OutlineError("x"), CategoryOutline, SeverityWarning, RetryNever, false, false},
		{"generation", GenerationError("x"), CategoryGeneration, SeverityWarning, RetryNever, false, false},
		{"filesystem", FileSystemError("x"), CategoryFileSystem, SeverityError, RetryBackoff, true, true},
		{"store", StoreError("x"), CategoryStore, SeverityError, RetryNever, false, false},
		{"runtime", RuntimeError("x"), CategoryRuntime, SeverityFatal, RetryNever, false, false},
		{"internal", InternalError("x"), CategoryInternal, SeverityFatal, RetryNever, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			require.Equal(t, tt.category, err.Category())
			require.Equal(t, tt.severity, err.Severity())
			require.Equal(t, tt.retry, err.RetryStrategy())
			require.Equal(t, tt.canRetry, err.CanRetry())
			require.Equal(t, tt.transient, err.IsTransient())
		})
	}
}

func TestWithContextReturnsCopy(t *testing.T) {
	base := GitHubError("rate limited").WithContext("owner", "golang").Build()

	derived := base.WithContext("repo", "go")

	_, ok := base.Context().Get("repo")
	require.False(t, ok, "base error must not pick up derived context")

	owner, ok := derived.Context().GetString("owner")
	require.True(t, ok)
	require.Equal(t, "golang", owner)

	repo, ok := derived.Context().GetString("repo")
	require.True(t, ok)
	require.Equal(t, "go", repo)
}

func TestClassifiedIsComparesCategoryAndMessage(t *testing.T) {
	a := StoreError("run not found").Build()
	b := WrapError(errors.New("sql: no rows"), CategoryStore, "run not found").Build()

	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, StoreError("page not found").Build())
}

func TestUnclassifiedFallbacks(t *testing.T) {
	plain := errors.New("boom")

	require.False(t, IsClassified(plain))
	require.False(t, HasCategory(plain, CategoryInternal))
	require.Equal(t, CategoryInternal, GetCategory(plain))
	require.Equal(t, SeverityError, GetSeverity(plain))
	require.Equal(t, RetryNever, GetRetryStrategy(plain))
}

func TestErrorContext(t *testing.T) {
	var ctx ErrorContext
	ctx = ctx.Set("section", "getting-started")
	ctx = ctx.Set("pages", 12)

	section, ok := ctx.GetString("section")
	require.True(t, ok)
	require.Equal(t, "getting-started", section)

	pages, ok := ctx.Get("pages")
	require.True(t, ok)
	require.Equal(t, 12, pages)

	_, ok = ctx.Get("missing")
	require.False(t, ok)

	_, ok = ctx.GetString("pages")
	require.False(t, ok, "GetString must reject non-string values")
}

func TestErrorContextMerge(t *testing.T) {
	left := ErrorContext{"repo": "golang/go", "source": "api"}
	right := ErrorContext{"source": "clone", "ref": "main"}

	merged := left.Merge(right)

	require.Equal(t, ErrorContext{"repo": "golang/go", "source": "clone", "ref": "main"}, merged)
	require.Equal(t, ErrorContext{"repo": "golang/go", "source": "api"}, left, "Merge must not mutate the receiver")
	require.Equal(t, ErrorContext{"source": "clone", "ref": "main"}, right, "Merge must not mutate the argument")
}
