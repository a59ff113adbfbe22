package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/jusunglee/openeval/internal/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultModel = "gpt-4-turbo-2024-04-09"

// Client implements llm.Client on the chat completions endpoint. Any
// OpenAI-compatible server works through WithBaseURL.
type Client struct {
	client openai.Client
	model  string
}

type Option func(*config)

type config struct {
	model   string
	apiKey  string
	baseURL string
	timeout time.Duration
}

func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithAPIKey sets the API key. If empty, the SDK falls back to OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *config) { c.apiKey = key }
}

func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

func NewClient(opts ...Option) *Client {
	cfg := config{model: DefaultModel}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.model == "" {
		cfg.model = DefaultModel
	}

	var clientOpts []option.RequestOption
	if cfg.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return &Client{
		client: openai.NewClient(clientOpts...),
		model:  cfg.model,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Generate(ctx context.Context, req llm.Request) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toMessages(req),
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
		N:           openai.Int(int64(req.N)),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(completion.Choices) < req.N {
		return nil, fmt.Errorf("openai returned %d choices, want %d", len(completion.Choices), req.N)
	}

	texts := make([]string, req.N)
	for i := range req.N {
		msg := completion.Choices[i].Message
		if role := string(msg.Role); role != "assistant" {
			return nil, fmt.Errorf("openai choice %d has role %q, want assistant", i, role)
		}
		texts[i] = msg.Content
	}
	return texts, nil
}

func toMessages(req llm.Request) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	return append(msgs, openai.UserMessage(req.Prompt))
}
