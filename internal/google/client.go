package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/jusunglee/openeval/internal/llm"
	"google.golang.org/genai"
)

// Model represents a Google AI model identifier
type Model string

const (
	ModelGemma3_27B   Model = "gemma-3-27b-it"
	ModelGemini2Flash Model = "gemini-2.0-flash"
	ModelGemini2_5Pro Model = "gemini-2.5-pro"
)

var DefaultModel Model = ModelGemini2Flash

type Client struct {
	client *genai.Client
	model  Model
}

func NewClient(ctx context.Context, apiKey string, model Model) (*Client, error) {
	return newClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newClient(ctx context.Context, cfg *genai.ClientConfig, model Model) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Gemma doesn't support system instructions natively, prepend to user message
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(float32(req.Temperature)),
		TopP:           genai.Ptr(float32(req.TopP)),
		CandidateCount: int32(req.N),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	result, err := c.client.Models.GenerateContent(ctx, string(c.model),
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("google API call failed: %w", err)
	}

	texts := candidateTexts(result)
	if len(texts) < req.N {
		return nil, fmt.Errorf("google returned %d candidates, want %d", len(texts), req.N)
	}
	return texts[:req.N], nil
}

// candidateTexts joins the text parts of each candidate that has content.
func candidateTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil {
		return nil
	}
	var texts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		texts = append(texts, sb.String())
	}
	return texts
}
