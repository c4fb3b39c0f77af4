package errors

// ErrorCategory classifies an error for routing: HTTP status mapping, CLI
// exit codes, and retry decisions all key off the category.
type ErrorCategory string

const (
	// Caller-input categories.
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// Upstream integration categories.
	CategoryNetwork   ErrorCategory = "network"
	CategoryGit       ErrorCategory = "git"
	CategoryGitHub    ErrorCategory = "github"
	CategoryRateLimit ErrorCategory = "rate_limit"
	CategoryLLM       ErrorCategory = "llm"

	// Pipeline categories.
	CategoryOutline    ErrorCategory = "outline"
	CategoryGeneration ErrorCategory = "generation"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStore      ErrorCategory = "store"

	// Process categories.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity is the impact of an error on the operation that raised it.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops execution
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // operation continues degraded
	SeverityInfo    ErrorSeverity = "info"    // informational only
)

// RetryStrategy tells callers whether and how a failed operation may be
// reattempted.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit" // wait out the limit window first
	RetryUserAction RetryStrategy = "user"       // needs operator intervention
)
