// internal/server/handler_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-search/internal/assemble"
	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/dispatch"
	"listing-search/internal/llm"
	"listing-search/internal/markers"
	"listing-search/internal/models"
)

type stubCompletion struct {
	turns []*llm.Completion
	err   error
	calls int
	seen  [][]models.ChatMessage
}

func (s *stubCompletion) Complete(ctx context.Context, messages []models.ChatMessage, tools []llm.Tool, toolChoice string) (*llm.Completion, error) {
	s.seen = append(s.seen, messages)
	if s.err != nil {
		return nil, s.err
	}
	turn := s.turns[s.calls]
	s.calls++
	return turn, nil
}

type stubExecutor struct{}

func (stubExecutor) Definitions() []llm.Tool { return nil }

func (stubExecutor) Execute(ctx context.Context, call models.ToolCall) *models.ToolResult {
	return &models.ToolResult{
		CallID: call.ID, Name: call.Name, Success: true,
		Data: map[string]interface{}{"totalHits": 7}, Summary: "7 listings",
	}
}

func newTestHandler(t *testing.T, completion dispatch.CompletionClient) *ChatHandler {
	log := logger.NewTestLogger(t)
	loop := dispatch.NewLoop(completion, stubExecutor{}, dispatch.Config{MaxToolRounds: 2, Budget: 5 * time.Second}, log)
	assembler := assemble.New(markers.NewParser(log), 10, log)
	return NewChatHandler(loop, assembler, stderrors.NewErrorHandler(log), nil, log)
}

func postChat(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/search", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatHandlerInvalidBody(t *testing.T) {
	handler := newTestHandler(t, &stubCompletion{})

	rec := postChat(t, handler, `{"message": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestChatHandlerEmptyMessage(t *testing.T) {
	handler := newTestHandler(t, &stubCompletion{})

	rec := postChat(t, handler, `{"message": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerEndToEnd(t *testing.T) {
	completion := &stubCompletion{turns: []*llm.Completion{
		{ToolCalls: []models.ToolCall{{ID: "c1", Name: "searchHomes", Arguments: `{"location": "Palm Desert"}`}}},
		{Text: `Found homes.
[LISTING_CAROUSEL]{"title": "Palm Desert", "listings": [{"listingId": "1"}]}[/LISTING_CAROUSEL]`},
	}}
	handler := newTestHandler(t, completion)

	rec := postChat(t, handler, `{"message": "homes in palm desert"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var response models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "Found homes.", response.Text)
	require.NotNil(t, response.Listings)
	assert.Equal(t, "Palm Desert", response.Listings.Title)
	assert.NotEmpty(t, response.Metadata.RequestID)
	assert.Equal(t, dispatch.StateDone, response.Metadata.State)
	assert.Equal(t, 2, response.Metadata.Iterations)
	require.Len(t, response.Metadata.ToolCalls, 1)

	// The first model turn starts with the system prompt then the user turn.
	first := completion.seen[0]
	require.GreaterOrEqual(t, len(first), 2)
	assert.Equal(t, models.RoleSystem, first[0].Role)
	assert.Equal(t, "homes in palm desert", first[len(first)-1].Content)
}

func TestChatHandlerCarriesHistory(t *testing.T) {
	completion := &stubCompletion{turns: []*llm.Completion{{Text: "Sure."}}}
	handler := newTestHandler(t, completion)

	rec := postChat(t, handler, `{
		"message": "and with a pool?",
		"history": [
			{"role": "user", "content": "homes in palm desert"},
			{"role": "assistant", "content": "Found 7 homes."}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	first := completion.seen[0]
	require.Len(t, first, 4) // system + 2 history + new user turn
	assert.Equal(t, "homes in palm desert", first[1].Content)
	assert.Equal(t, "and with a pool?", first[3].Content)
}

func TestChatHandlerCompletionFailure(t *testing.T) {
	handler := newTestHandler(t, &stubCompletion{err: llm.ErrCompletionFailed})

	rec := postChat(t, handler, `{"message": "hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMPLETION_FAILED", body["code"])
	assert.NotEmpty(t, body["error"])
}
