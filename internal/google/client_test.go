package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jusunglee/openeval/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func candidate(texts ...string) map[string]any {
	parts := make([]map[string]any, len(texts))
	for i, t := range texts {
		parts[i] = map[string]any{"text": t}
	}
	return map[string]any{
		"content":      map[string]any{"role": "model", "parts": parts},
		"finishReason": "STOP",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := newClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	}, ModelGemma3_27B)
	require.NoError(t, err)
	return c
}

func TestGenerateRequestsCandidates(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemma-3-27b-it:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{candidate("one"), candidate("tw", "o")},
		})
	})

	req := llm.DefaultRequest("def f():\n", 2)
	req.System = "Write Python."
	texts, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)

	cfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, cfg["candidateCount"])

	contents := body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "Write Python.\n\ndef f():\n", parts[0].(map[string]any)["text"])
}

func TestGenerateTooFewCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{candidate("only")}})
	})

	_, err := c.Generate(context.Background(), llm.DefaultRequest("p", 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 candidates, want 2")
}

func TestCandidateTextsSkipsEmpty(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "a"}, {Text: "b"}}}},
			{Content: nil},
			{Content: &genai.Content{}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "c"}}}},
		},
	}
	assert.Equal(t, []string{"ab", "c"}, candidateTexts(resp))
	assert.Nil(t, candidateTexts(nil))
}
