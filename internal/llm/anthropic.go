package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-sonnet-4-5"
	anthropicDefaultTimeout = 60 * time.Second

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// AnthropicClient talks to the Anthropic Messages API directly. There is no
// official Go SDK dependency to carry; the wire format is three structs.
type AnthropicClient struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// anthropicRequest is the /v1/messages request format.
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicResponse is the /v1/messages response format.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *anthropicAPIError `json:"error,omitempty"`
}

// NewAnthropicClient builds a Messages API client from config.
func NewAnthropicClient(cfg config.LLMConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, derrors.ConfigError("anthropic api key is required (llm.api_key or ANTHROPIC_API_KEY)").Build()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = anthropicDefaultTimeout
	}
	return &AnthropicClient{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *AnthropicClient) ModelName() string { return c.model }

// Complete sends one message exchange and returns the concatenated text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	// The Messages API requires max_tokens. Prompts that leave it unset get
	// the configured default.
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	reqBody := anthropicRequest{
		Model:     c.model,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt.User}},
		MaxTokens: maxTokens,
		System:    prompt.System,
	}
	if prompt.Temperature > 0 {
		reqBody.Temperature = prompt.Temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryLLM, "marshal anthropic request").Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryLLM, "create anthropic request").Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryNetwork, "send anthropic request").Retryable().Build()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", derrors.WrapError(err, derrors.CategoryNetwork, "read anthropic response").Retryable().Build()
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(body, &msgResp); err != nil && resp.StatusCode == http.StatusOK {
		return "", derrors.WrapError(err, derrors.CategoryLLM, "decode anthropic response").Build()
	}

	if anthropicThrottled(resp.StatusCode, msgResp.Error) {
		msg := "anthropic rate limited"
		if msgResp.Error != nil {
			msg = fmt.Sprintf("anthropic rate limited: %s", msgResp.Error.Message)
		}
		return "", derrors.NewError(derrors.CategoryRateLimit, msg).
			Warning().RateLimit().WithContext("status", resp.StatusCode).Build()
	}
	if msgResp.Error != nil {
		return "", derrors.NewError(derrors.CategoryLLM, fmt.Sprintf("anthropic error: %s", msgResp.Error.Message)).
			WithContext("status", resp.StatusCode).Build()
	}
	if resp.StatusCode != http.StatusOK {
		return "", derrors.NewError(derrors.CategoryLLM, fmt.Sprintf("anthropic status %d: %s", resp.StatusCode, truncate(string(body), 200))).Build()
	}
	if len(msgResp.Content) == 0 {
		return "", derrors.NewError(derrors.CategoryLLM, "anthropic returned no content blocks").Build()
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return result.String(), nil
}

// anthropicThrottled reports whether the response indicates throttling.
// 529 is the documented "overloaded" status and is treated the same way.
func anthropicThrottled(status int, apiErr *anthropicAPIError) bool {
	if status == http.StatusTooManyRequests || status == 529 {
		return true
	}
	if apiErr == nil {
		return false
	}
	return apiErr.Type == "rate_limit_error" || apiErr.Type == "overloaded_error"
}
