package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jusunglee/openeval/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(contents ...string) map[string]any {
	choices := make([]map[string]any, len(contents))
	for i, c := range contents {
		choices[i] = map[string]any{
			"index":         i,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": c,
				"refusal": "",
			},
			"logprobs": nil,
		}
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   DefaultModel,
		"choices": choices,
		"usage": map[string]any{
			"prompt_tokens":     12,
			"completion_tokens": 8,
			"total_tokens":      20,
		},
	}
}

func newTestServer(t *testing.T, resp map[string]any, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, DefaultModel, c.Model())

	c = NewClient(WithModel(""))
	assert.Equal(t, DefaultModel, c.Model())

	c = NewClient(WithModel("gpt-4o-mini"))
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

func TestClientImplementsLLMClient(t *testing.T) {
	var _ llm.Client = (*Client)(nil)
}

func TestGenerateSendsSamplingParameters(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, completionResponse("first", "second"), &body)

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"), WithModel("gpt-4o"))
	texts, err := c.Generate(context.Background(), llm.DefaultRequest("Complete the following function:\ndef f():", 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, texts)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 2, body["n"])
	assert.EqualValues(t, 0, body["temperature"])
	assert.EqualValues(t, 0.95, body["top_p"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Complete the following function:\ndef f():", msg["content"])
}

func TestGenerateIncludesSystemMessage(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, completionResponse("ok"), &body)

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	req := llm.DefaultRequest("hi", 1)
	req.System = "You write Python."
	_, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestGenerateTooFewChoices(t *testing.T) {
	srv := newTestServer(t, completionResponse("only one"), nil)

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	_, err := c.Generate(context.Background(), llm.DefaultRequest("hi", 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 choices, want 3")
}

func TestGenerateRejectsZeroN(t *testing.T) {
	c := NewClient(WithAPIKey("test-key"))
	_, err := c.Generate(context.Background(), llm.DefaultRequest("hi", 0))
	assert.ErrorIs(t, err, llm.ErrNoCompletions)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))
	_, err := c.Generate(context.Background(), llm.DefaultRequest("hi", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}
