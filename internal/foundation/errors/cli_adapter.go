package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLI exit codes by failure class. Scripts branch on these, so the values
// are stable.
const (
	exitGeneral  = 1
	exitUsage    = 2
	exitAuth     = 5
	exitConfig   = 7
	exitUpstream = 8
	exitInternal = 10
	exitPipeline = 11
	exitRuntime  = 12
)

// CLIErrorAdapter renders errors for terminal users and picks process exit
// codes from the classification.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates an adapter. A nil logger uses slog.Default.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor maps an error to the process exit code. nil maps to 0,
// unclassified errors to 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return exitGeneral
	}
	switch c.Category() {
	case CategoryValidation:
		return exitUsage
	case CategoryConfig:
		return exitConfig
	case CategoryAuth:
		return exitAuth
	case CategoryNetwork, CategoryGit, CategoryGitHub, CategoryRateLimit, CategoryLLM:
		return exitUpstream
	case CategoryOutline, CategoryGeneration, CategoryFileSystem, CategoryStore:
		return exitPipeline
	case CategoryRuntime:
		return exitRuntime
	case CategoryInternal:
		return exitInternal
	}
	return exitGeneral
}

// FormatError renders err for the terminal. Verbose mode prints the full
// classified form; otherwise only caller-input categories expose their
// message and the rest collapse to a generic line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return c.Error()
	}
	switch c.Category() {
	case CategoryValidation, CategoryConfig, CategoryAuth, CategoryNotFound:
		return fmt.Sprintf("Error: %s", c.Message())
	}
	return "Internal error occurred (use -v for details)"
}

// HandleError logs err, prints the user-facing form to stderr, and exits
// with the mapped code. A nil err is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintln(os.Stderr, a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

// shouldLog keeps quiet mode quiet: without -v only fatal classified
// errors and unclassified errors reach the log.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	c, ok := AsClassified(err)
	if !ok {
		return true
	}
	return c.IsFatal()
}

func (a *CLIErrorAdapter) logError(err error) {
	c, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(c.Category()))}
	if c.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), severityLevel(c.Severity()), c.Message(), attrs...)
}
