// internal/dispatch/loop_test.go
package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/llm"
	"listing-search/internal/models"
)

// scriptedCompletion returns canned turns in order and records the
// tool_choice it was called with.
type scriptedCompletion struct {
	turns       []*llm.Completion
	err         error
	calls       int
	toolChoices []string
	messagesLen []int
}

func (s *scriptedCompletion) Complete(ctx context.Context, messages []models.ChatMessage, tools []llm.Tool, toolChoice string) (*llm.Completion, error) {
	s.toolChoices = append(s.toolChoices, toolChoice)
	s.messagesLen = append(s.messagesLen, len(messages))
	if s.err != nil {
		return nil, s.err
	}
	turn := s.turns[s.calls]
	s.calls++
	return turn, nil
}

type recordingExecutor struct {
	mu      sync.Mutex
	order   []string
	delay   map[string]time.Duration
	failing map[string]bool
}

func (e *recordingExecutor) Definitions() []llm.Tool { return nil }

func (e *recordingExecutor) Execute(ctx context.Context, call models.ToolCall) *models.ToolResult {
	if d, ok := e.delay[call.ID]; ok {
		time.Sleep(d)
	}

	e.mu.Lock()
	e.order = append(e.order, call.ID)
	e.mu.Unlock()

	if e.failing != nil && e.failing[call.Name] {
		return &models.ToolResult{
			CallID: call.ID, Name: call.Name,
			Error:   &models.ToolError{Code: "TOOL_EXEC_FAILED", Message: "failed"},
			Summary: "execution failed",
		}
	}
	return &models.ToolResult{
		CallID: call.ID, Name: call.Name, Success: true,
		Data: map[string]interface{}{"ok": true}, Summary: "ok",
	}
}

func userMessages() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleUser, Content: "homes in palm desert"},
	}
}

func newTestLoop(t *testing.T, completion CompletionClient, executor ToolExecutor, rounds int) *Loop {
	return NewLoop(completion, executor, Config{MaxToolRounds: rounds, Budget: 5 * time.Second}, logger.NewTestLogger(t))
}

func TestLoopNarrativeOnlyFinishesInOneTurn(t *testing.T) {
	completion := &scriptedCompletion{turns: []*llm.Completion{
		{Text: "Palm Desert is lovely."},
	}}
	loop := newTestLoop(t, completion, &recordingExecutor{}, 2)

	outcome, err := loop.Run(context.Background(), userMessages())
	require.NoError(t, err)

	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, "Palm Desert is lovely.", outcome.FinalText)
	assert.Equal(t, 1, outcome.Iterations)
	assert.Empty(t, outcome.Records)
}

func TestLoopExecutesToolsThenFinishes(t *testing.T) {
	completion := &scriptedCompletion{turns: []*llm.Completion{
		{ToolCalls: []models.ToolCall{{ID: "c1", Name: "searchHomes", Arguments: `{"location": "Palm Desert"}`}}},
		{Text: "Found some homes."},
	}}
	loop := newTestLoop(t, completion, &recordingExecutor{}, 2)

	outcome, err := loop.Run(context.Background(), userMessages())
	require.NoError(t, err)

	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 2, outcome.Iterations)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, "searchHomes", outcome.Records[0].Name)
	assert.True(t, outcome.Records[0].Success)

	// Message list: system, user, assistant tool call, tool result,
	// assistant narrative.
	require.Len(t, outcome.Messages, 5)
	assert.Equal(t, models.RoleTool, outcome.Messages[3].Role)
	assert.Equal(t, "c1", outcome.Messages[3].ToolCallID)
}

// Calling the same tool twice in one turn yields two records in call order
// even when the first call takes longer than the second.
func TestLoopSameTurnCallsKeepOrder(t *testing.T) {
	completion := &scriptedCompletion{turns: []*llm.Completion{
		{ToolCalls: []models.ToolCall{
			{ID: "c1", Name: "searchHomes", Arguments: `{"city": "Palm Desert"}`},
			{ID: "c2", Name: "searchHomes", Arguments: `{"city": "La Quinta"}`},
		}},
		{Text: "Compared both."},
	}}
	executor := &recordingExecutor{delay: map[string]time.Duration{"c1": 50 * time.Millisecond}}
	loop := newTestLoop(t, completion, executor, 2)

	outcome, err := loop.Run(context.Background(), userMessages())
	require.NoError(t, err)

	// c2 finished first, but results and records stay in call order.
	assert.Equal(t, []string{"c2", "c1"}, executor.order)
	require.Len(t, outcome.Records, 2)
	assert.Equal(t, "searchHomes", outcome.Records[0].Name)
	assert.Equal(t, "searchHomes", outcome.Records[1].Name)

	toolMessages := []models.ChatMessage{}
	for _, m := range outcome.Messages {
		if m.Role == models.RoleTool {
			toolMessages = append(toolMessages, m)
		}
	}
	require.Len(t, toolMessages, 2)
	assert.Equal(t, "c1", toolMessages[0].ToolCallID)
	assert.Equal(t, "c2", toolMessages[1].ToolCallID)
}

func TestLoopForcesAnswerAtRoundCap(t *testing.T) {
	toolTurn := &llm.Completion{ToolCalls: []models.ToolCall{
		{ID: "c1", Name: "searchHomes", Arguments: `{}`},
	}}
	completion := &scriptedCompletion{turns: []*llm.Completion{
		toolTurn, toolTurn, {Text: "Best I can do."},
	}}
	loop := newTestLoop(t, completion, &recordingExecutor{}, 2)

	outcome, err := loop.Run(context.Background(), userMessages())
	require.NoError(t, err)

	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 3, outcome.Iterations)
	require.Len(t, completion.toolChoices, 3)
	assert.Equal(t, "", completion.toolChoices[0])
	assert.Equal(t, "", completion.toolChoices[1])
	assert.Equal(t, "none", completion.toolChoices[2])
}

func TestLoopToolFailureFlowsBackToModel(t *testing.T) {
	completion := &scriptedCompletion{turns: []*llm.Completion{
		{ToolCalls: []models.ToolCall{{ID: "c1", Name: "searchHomes", Arguments: `{}`}}},
		{Text: "I could not search right now."},
	}}
	executor := &recordingExecutor{failing: map[string]bool{"searchHomes": true}}
	loop := newTestLoop(t, completion, executor, 2)

	outcome, err := loop.Run(context.Background(), userMessages())
	require.NoError(t, err, "tool failure must not abort the loop")

	assert.Equal(t, StateDone, outcome.State)
	require.Len(t, outcome.Records, 1)
	assert.False(t, outcome.Records[0].Success)

	// The failed result reached the model as a tool message.
	assert.Contains(t, outcome.Messages[3].Content, "TOOL_EXEC_FAILED")
}

func TestLoopBudgetAborts(t *testing.T) {
	completion := &scriptedCompletion{turns: []*llm.Completion{
		{ToolCalls: []models.ToolCall{{ID: "c1", Name: "searchHomes", Arguments: `{}`}}},
		{Text: "too late"},
	}}
	executor := &recordingExecutor{delay: map[string]time.Duration{"c1": 100 * time.Millisecond}}
	loop := NewLoop(completion, executor, Config{MaxToolRounds: 2, Budget: 30 * time.Millisecond}, logger.NewTestLogger(t))

	outcome, err := loop.Run(context.Background(), userMessages())
	require.Error(t, err)
	assert.Equal(t, StateAborted, outcome.State)
}

func TestLoopCompletionErrorSurfaces(t *testing.T) {
	completion := &scriptedCompletion{err: llm.ErrCompletionFailed}
	loop := newTestLoop(t, completion, &recordingExecutor{}, 2)

	_, err := loop.Run(context.Background(), userMessages())
	require.Error(t, err)

	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeCompletionFailed, stdErr.Code)
}

func TestLoopCompletionTimeoutSurfaces(t *testing.T) {
	completion := &scriptedCompletion{err: llm.ErrCompletionTimeout}
	loop := newTestLoop(t, completion, &recordingExecutor{}, 2)

	_, err := loop.Run(context.Background(), userMessages())
	require.Error(t, err)

	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeCompletionTimeout, stdErr.Code)
}
