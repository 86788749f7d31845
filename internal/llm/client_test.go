// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-search/internal/common/logger"
	"listing-search/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}, logger.NewTestLogger(t))
}

func TestCompleteNarrativeOnly(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Here are some homes."}, "finish_reason": "stop"}]}`))
	})

	messages := []models.ChatMessage{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleUser, Content: "homes in palm desert"},
	}

	completion, err := client.Complete(context.Background(), messages, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Here are some homes.", completion.Text)
	assert.Empty(t, completion.ToolCalls)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	sent := captured["messages"].([]interface{})
	assert.Len(t, sent, 2)
}

func TestCompleteWithToolCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "searchHomes", "arguments": "{\"location\": \"Palm Desert\"}"}},
				{"id": "call_2", "type": "function", "function": {"name": "getMarketStats", "arguments": "{\"location\": \"Palm Desert\"}"}}
			]
		}, "finish_reason": "tool_calls"}]}`))
	})

	completion, err := client.Complete(context.Background(), nil, nil, "")
	require.NoError(t, err)

	require.Len(t, completion.ToolCalls, 2)
	assert.Equal(t, "call_1", completion.ToolCalls[0].ID)
	assert.Equal(t, "searchHomes", completion.ToolCalls[0].Name)
	assert.JSONEq(t, `{"location": "Palm Desert"}`, completion.ToolCalls[0].Arguments)
	assert.Equal(t, "getMarketStats", completion.ToolCalls[1].Name)
}

func TestCompleteForwardsToolChoice(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}}]}`))
	})

	_, err := client.Complete(context.Background(), nil, nil, "none")
	require.NoError(t, err)
	assert.Equal(t, "none", captured["tool_choice"])
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "recovered"}}]}`))
	})

	completion, err := client.Complete(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "recovered", completion.Text)
}

func TestCompleteRejectionIsNotLeaked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided: sk-secret", "type": "invalid_request_error"}}`))
	})

	_, err := client.Complete(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.NotContains(t, err.Error(), "sk-secret")
}

func TestCompleteTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, nil, nil, "")
	assert.ErrorIs(t, err, ErrCompletionTimeout)
}

func TestCompleteEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), nil, nil, "")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}
