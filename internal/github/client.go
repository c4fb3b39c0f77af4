package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/retry"
)

// Client wraps the go-github client with rate limiting, transient-failure
// retries, and error translation.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
	policy      retry.Policy
	log         *slog.Logger
}

// NewClient builds a GitHub API client from config. Without a token the
// client still works, at the unauthenticated quota.
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.TimeoutDuration()}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = cfg.TimeoutDuration()
	}

	ghc := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		uploadURL := cfg.UploadURL
		if uploadURL == "" {
			uploadURL = cfg.BaseURL
		}
		var err error
		ghc, err = ghc.WithEnterpriseURLs(cfg.BaseURL, uploadURL)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid github base_url").Fatal().Build()
		}
	}

	return &Client{
		gh:          ghc,
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		policy:      retry.NewPolicy(cfg.RetryBackoff, cfg.RetryInitialDelayDuration(), cfg.RetryMaxDelayDuration(), cfg.MaxRetries),
		log:         slog.Default(),
	}, nil
}

// WithLogger injects a logger. Without one the client logs through the
// default logger.
func (c *Client) WithLogger(log *slog.Logger) *Client {
	if log != nil {
		c.log = log
	}
	return c
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client { return c.gh }

// RateLimiter exposes the limiter for status reporting.
func (c *Client) RateLimiter() *RateLimiter { return c.rateLimiter }

// do gates one API call on the request limiter and repeats it on transient
// failures per the configured backoff policy. Rate limits, not-found, and
// auth failures return immediately; an interrupted backoff wait returns the
// context's error.
func (c *Client) do(ctx context.Context, operation string, call func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug("github call failed, backing off before retry",
				slog.String("operation", operation),
				logfields.RetryCount(attempt),
				logfields.Error(lastErr))
			if serr := c.policy.Sleep(ctx, attempt); serr != nil {
				return serr
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		err := call()
		if err == nil {
			return nil
		}
		lastErr = c.wrapError(err, operation)
		if !IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// GetRepository fetches a single repository's metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	var repository *gh.Repository
	err := c.do(ctx, "get repo", func() error {
		r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)
		repository = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repository, nil
}

// GetReadme fetches the repository README decoded to text.
// A missing README is reported as a 404 APIError; callers treat it as empty.
func (c *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	var content *gh.RepositoryContent
	err := c.do(ctx, "get readme", func() error {
		rc, resp, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)
		content = rc
		return nil
	})
	if err != nil {
		return "", err
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", c.wrapError(err, "decode readme")
	}
	return decoded, nil
}

// ListDirectory lists the entries of one directory level.
func (c *Client) ListDirectory(ctx context.Context, owner, repo, path string) ([]*gh.RepositoryContent, error) {
	var dir []*gh.RepositoryContent
	err := c.do(ctx, "list directory", func() error {
		_, entries, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)
		dir = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// GetFileContent fetches one file decoded to text.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var content *gh.RepositoryContent
	err := c.do(ctx, "get contents", func() error {
		file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)
		content = file
		return nil
	})
	if err != nil {
		return "", err
	}

	if content == nil {
		return "", ErrNotAFile
	}

	decoded, err := content.GetContent()
	if err != nil {
		return "", c.wrapError(err, "decode content")
	}
	return decoded, nil
}

// GetTree fetches the full recursive tree for a ref. Used as a size probe:
// a truncated tree means the repository is too large for API crawling.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error) {
	var tree *gh.Tree
	err := c.do(ctx, "get tree", func() error {
		t, resp, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)
		tree = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to this package's error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := c.rateLimiter.ResetTime()
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{
			ResetAt:   reset,
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		url := ""
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			url = ghErr.Response.Request.URL.String()
		}
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        url,
		}
	}

	return derrors.WrapError(err, derrors.CategoryGitHub, operation).Build()
}
