package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insightdash/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.LLMClient = (*OpenAIClient)(nil)

func TestOpenAIClient_ChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.Equal(t, 256.0, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model":"gpt-4o-mini-2024",
			"choices":[{"message":{"content":"[]"}}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}
		}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/", Timeout: time.Second})
	require.NoError(t, err)

	resp, err := client.ChatCompletion(context.Background(), "gpt-4o-mini", "hello", 256)
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
	assert.Equal(t, "openai", resp.Usage.Provider)
	assert.Equal(t, "gpt-4o-mini-2024", resp.Usage.Model)
}

func TestOpenAIClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer empty" {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	limited, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = limited.ChatCompletion(context.Background(), "m", "p", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	empty, err := NewOpenAIClient(Config{APIKey: "empty", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = empty.ChatCompletion(context.Background(), "m", "p", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing choices")

	_, err = empty.ChatCompletion(context.Background(), " ", "p", 0)
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(Config{})
	assert.Error(t, err)

	client, err := NewOpenAIClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, client.BaseURL)
}
