package llm

import (
	"context"
	"errors"
)

// Sampling parameters used for every benchmark generation.
const (
	Temperature = 0
	TopP        = 0.95
)

var ErrNoCompletions = errors.New("no completions requested")

type Request struct {
	System      string
	Prompt      string
	N           int
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultRequest asks for n completions of prompt with the fixed sampling parameters.
func DefaultRequest(prompt string, n int) Request {
	return Request{
		Prompt:      prompt,
		N:           n,
		Temperature: Temperature,
		TopP:        TopP,
	}
}

func (r Request) Validate() error {
	if r.N < 1 {
		return ErrNoCompletions
	}
	return nil
}

// Client returns exactly req.N raw completions, unmodified.
type Client interface {
	Generate(ctx context.Context, req Request) ([]string, error)
}
