// Package errors is the classified error system shared by every layer of
// the service.
//
// An error carries a category (which drives HTTP status codes, CLI exit
// codes, and retry decisions), a severity (which drives log levels), a
// retry strategy, and structured context. Errors are built fluently:
//
//	err := errors.WrapError(cause, errors.CategoryGitHub, "tree fetch failed").
//		WithRetry(errors.RetryBackoff).
//		WithContext("repository", repo.FullName).
//		Build()
//
// Classification reads the outermost error: wrapping re-classifies.
// HTTPErrorAdapter and CLIErrorAdapter translate classified errors into
// responses and exit codes at the process edges.
package errors
