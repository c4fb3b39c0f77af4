package errors

import (
	"fmt"
)

// ClassifiedError is an error carrying a category, a severity, a retry
// strategy, and structured context. Values are immutable once built; the
// With* methods return modified copies.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	}
	return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Is treats two classified errors with the same category and message as
// equal, regardless of cause and context.
func (e *ClassifiedError) Is(target error) bool {
	t, ok := target.(*ClassifiedError)
	return ok && e.category == t.category && e.message == t.message
}

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// WithContext returns a copy with one more context entry.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := e.clone()
	c.context = c.context.Merge(ErrorContext{key: value})
	return c
}

// WithContextMap returns a copy with ctx merged into the context.
func (e *ClassifiedError) WithContextMap(ctx ErrorContext) *ClassifiedError {
	c := e.clone()
	c.context = c.context.Merge(ctx)
	return c
}

func (e *ClassifiedError) clone() *ClassifiedError {
	c := *e
	return &c
}

// IsCategory reports whether the error carries the given category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// IsSeverity reports whether the error carries the given severity.
func (e *ClassifiedError) IsSeverity(severity ErrorSeverity) bool {
	return e.severity == severity
}

// IsFatal reports whether the error should stop execution.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// CanRetry reports whether the operation may be reattempted without an
// operator stepping in.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// IsTransient reports whether the failure is expected to clear on its own.
func (e *ClassifiedError) IsTransient() bool {
	switch e.retry {
	case RetryImmediate, RetryBackoff, RetryRateLimit:
		return true
	}
	return false
}

// Classification reads the outermost error only: wrapping an error in a new
// category deliberately re-classifies it, so the helpers below do not walk
// the cause chain.

// AsClassified returns err as a ClassifiedError when it is one.
func AsClassified(err error) (*ClassifiedError, bool) {
	c, ok := err.(*ClassifiedError)
	return c, ok
}

// IsClassified reports whether err is a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory reports whether err is classified with the given category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.IsCategory(category)
}

// HasSeverity reports whether err is classified with the given severity.
func HasSeverity(err error, severity ErrorSeverity) bool {
	c, ok := AsClassified(err)
	return ok && c.IsSeverity(severity)
}

// GetCategory returns err's category, or CategoryInternal for unclassified
// errors.
func GetCategory(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.Category()
	}
	return CategoryInternal
}

// GetSeverity returns err's severity, or SeverityError for unclassified
// errors.
func GetSeverity(err error) ErrorSeverity {
	if c, ok := AsClassified(err); ok {
		return c.Severity()
	}
	return SeverityError
}

// GetRetryStrategy returns err's retry strategy, or RetryNever for
// unclassified errors.
func GetRetryStrategy(err error) RetryStrategy {
	if c, ok := AsClassified(err); ok {
		return c.RetryStrategy()
	}
	return RetryNever
}
