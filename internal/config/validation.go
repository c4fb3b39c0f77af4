package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateServer(); err != nil {
		return err
	}
	if err := cv.validateGitHub(); err != nil {
		return err
	}
	if err := cv.validateFetch(); err != nil {
		return err
	}
	if err := cv.validateLLM(); err != nil {
		return err
	}
	if err := cv.validateOutline(); err != nil {
		return err
	}
	if err := cv.validateDurations(); err != nil {
		return err
	}
	if err := cv.validateEvents(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	port := cv.config.Server.Port
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}
	return nil
}

func (cv *configurationValidator) validateGitHub() error {
	g := cv.config.GitHub
	if g.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second cannot be negative: %v", g.RequestsPerSecond)
	}
	if g.Burst < 0 {
		return fmt.Errorf("github.burst cannot be negative: %d", g.Burst)
	}
	if g.MaxRetries < 0 {
		return fmt.Errorf("github.max_retries cannot be negative: %d", g.MaxRetries)
	}
	switch g.RetryBackoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		// Valid backoff strategies
	default:
		return fmt.Errorf("invalid github.retry_backoff: %s (allowed: fixed|linear|exponential)", g.RetryBackoff)
	}
	// Enterprise setups need both endpoints
	if g.UploadURL != "" && g.BaseURL == "" {
		return fmt.Errorf("github.upload_url requires github.base_url")
	}
	return nil
}

func (cv *configurationValidator) validateFetch() error {
	f := cv.config.Fetch
	if _, err := ValidateFetchMode(string(f.Mode)); err != nil {
		return err
	}
	if f.MaxDepth < 1 {
		return fmt.Errorf("fetch.max_depth must be >= 1: %d", f.MaxDepth)
	}
	if f.MaxFiles < 1 {
		return fmt.Errorf("fetch.max_files must be >= 1: %d", f.MaxFiles)
	}
	return nil
}

func (cv *configurationValidator) validateLLM() error {
	l := cv.config.LLM
	if _, err := ValidateLLMProvider(string(l.Provider)); err != nil {
		return err
	}
	if l.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be >= 1: %d", l.MaxTokens)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]: %v", l.Temperature)
	}
	return nil
}

func (cv *configurationValidator) validateOutline() error {
	u := cv.config.Outline.ServiceURL
	if u == "" {
		return nil
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("outline.service_url must be an http(s) URL: %s", u)
	}
	return nil
}

// validateDurations checks every duration-typed string in one sweep.
func (cv *configurationValidator) validateDurations() error {
	durations := map[string]string{
		"server.read_timeout":            cv.config.Server.ReadTimeout,
		"server.write_timeout":           cv.config.Server.WriteTimeout,
		"server.shutdown_timeout":        cv.config.Server.ShutdownTimeout,
		"github.timeout":                 cv.config.GitHub.Timeout,
		"github.retry_initial_delay":     cv.config.GitHub.RetryInitialDelay,
		"github.retry_max_delay":         cv.config.GitHub.RetryMaxDelay,
		"llm.timeout":                    cv.config.LLM.Timeout,
		"outline.timeout":                cv.config.Outline.Timeout,
		"generation.pacing_delay":        cv.config.Generation.PacingDelay,
		"generation.rate_limit_cooldown": cv.config.Generation.RateLimitCooldown,
		"generation.pipeline_timeout":    cv.config.Generation.PipelineTimeout,
		"store.retention":                cv.config.Store.Retention,
		"schedule.janitor_interval":      cv.config.Schedule.JanitorInterval,
		"schedule.refresh_interval":      cv.config.Schedule.RefreshInterval,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s: %s: %w", field, raw, err)
		}
	}

	initial := cv.config.GitHub.RetryInitialDelayDuration()
	maxDelay := cv.config.GitHub.RetryMaxDelayDuration()
	if maxDelay < initial {
		return fmt.Errorf("github.retry_max_delay (%s) must be >= github.retry_initial_delay (%s)",
			maxDelay, initial)
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	e := cv.config.Events
	if !e.Enabled {
		return nil
	}
	if e.URL == "" {
		return fmt.Errorf("events.url is required when events.enabled is true")
	}
	if e.SubjectPrefix == "" {
		return fmt.Errorf("events.subject_prefix cannot be empty when events are enabled")
	}
	return nil
}
