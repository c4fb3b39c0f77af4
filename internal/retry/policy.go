// Package retry provides the backoff policies used for transient upstream
// failures and the fixed-cooldown shape used after rate limits.
package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/config"
)

// Policy describes how delays between retry attempts grow. Immutable after
// construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // retries after the first failure
}

// DefaultPolicy is linear growth from one second, capped at thirty seconds,
// with two retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// CooldownPolicy returns a fixed-delay policy permitting a single retry.
// This is the shape rate limited upstream calls use: wait out the cooldown
// once, then give up.
func CooldownPolicy(cooldown time.Duration) Policy {
	return NewPolicy(config.RetryBackoffFixed, cooldown, cooldown, 1)
}

// NewPolicy builds a policy from raw configuration values. Unknown modes,
// non-positive delays, and negative retry counts keep their defaults, and
// Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry attempt retryCount (1-based: the
// first retry is 1). Attempts at or below zero carry no delay.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d = p.Initial << (retryCount - 1)
	default:
		d = p.Initial * time.Duration(retryCount)
	}
	// Growth past the cap, including shift overflow, collapses to Max.
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Sleep blocks for the delay of the given retry attempt, honoring context
// cancellation. Returns the context error when interrupted.
func (p Policy) Sleep(ctx context.Context, retryCount int) error {
	return Wait(ctx, p.Delay(retryCount))
}

// Wait blocks for d, honoring context cancellation. Non-positive durations
// return immediately with the context error, if any. Pacing delays that are
// not retries use this directly.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Validate reports whether the policy can be applied at all.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return fmt.Errorf("retry policy: initial delay must be positive, got %v", p.Initial)
	case p.Max <= 0:
		return fmt.Errorf("retry policy: max delay must be positive, got %v", p.Max)
	case p.MaxRetries < 0:
		return fmt.Errorf("retry policy: max retries must not be negative, got %d", p.MaxRetries)
	}
	return nil
}
