package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

const openaiDefaultModel = "gpt-4o-mini"

// OpenAIClient implements Client using the official openai-go SDK (chat completions).
type OpenAIClient struct {
	model     string
	maxTokens int
	opts      []option.RequestOption
}

// NewOpenAIClient builds a chat-completions client from config.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, derrors.ConfigError("openai api key is required (llm.api_key or OPENAI_API_KEY)").Build()
	}
	model := cfg.Model
	if model == "" {
		model = openaiDefaultModel
	}
	// The SDK retries 429s on its own; retry policy is owned by the pipeline,
	// so SDK-level retries are disabled to keep "exactly one retry" true.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if d := cfg.TimeoutDuration(); d > 0 {
		opts = append(opts, option.WithRequestTimeout(d))
	}
	return &OpenAIClient{model: model, maxTokens: cfg.MaxTokens, opts: opts}, nil
}

// ModelName returns the configured model identifier.
func (o *OpenAIClient) ModelName() string { return o.model }

// Complete sends one chat completion request.
func (o *OpenAIClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if prompt.Temperature > 0 {
		params.Temperature = openai.Float(prompt.Temperature)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", derrors.WrapError(err, derrors.CategoryRateLimit, "openai rate limited").
				Warning().RateLimit().Build()
		}
		return "", derrors.WrapError(err, derrors.CategoryLLM, "openai completion failed").Build()
	}
	if len(resp.Choices) == 0 {
		return "", derrors.NewError(derrors.CategoryLLM, "openai returned empty choices").Build()
	}
	return resp.Choices[0].Message.Content, nil
}
