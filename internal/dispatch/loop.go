// internal/dispatch/loop.go
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/common/metrics"
	"listing-search/internal/llm"
	"listing-search/internal/models"
)

// Loop states. Aborted means the request context expired before the model
// produced a final narrative.
const (
	StateAwaitingModel  = "awaiting_model"
	StateExecutingTools = "executing_tools"
	StateDone           = "done"
	StateAborted        = "aborted"
)

// CompletionClient is the slice of the completion service the loop needs.
type CompletionClient interface {
	Complete(ctx context.Context, messages []models.ChatMessage, tools []llm.Tool, toolChoice string) (*llm.Completion, error)
}

// ToolExecutor is the slice of the registry the loop needs.
type ToolExecutor interface {
	Execute(ctx context.Context, call models.ToolCall) *models.ToolResult
	Definitions() []llm.Tool
}

// Config bounds a single request.
type Config struct {
	MaxToolRounds int           // tool-executing rounds before the model is forced to answer
	Budget        time.Duration // wall-clock budget for the whole loop
}

// Outcome is everything one loop run produced.
type Outcome struct {
	Messages   []models.ChatMessage
	FinalText  string
	Records    []models.ToolCallRecord
	Iterations int
	State      string
}

// Loop drives the model/tool conversation for one request. The message
// list is append-only; no state survives between requests.
type Loop struct {
	completion CompletionClient
	executor   ToolExecutor
	config     Config
	logger     logger.Logger
}

func NewLoop(completion CompletionClient, executor ToolExecutor, config Config, log logger.Logger) *Loop {
	if config.MaxToolRounds < 1 {
		config.MaxToolRounds = 2
	}
	return &Loop{
		completion: completion,
		executor:   executor,
		config:     config,
		logger:     log.With(map[string]interface{}{"component": "dispatch-loop"}),
	}
}

// Run executes the dispatch loop until the model answers with narrative
// text, the round cap forces it to, or the budget expires. Tool failures
// never abort the loop: they flow back to the model as error results.
func (l *Loop) Run(ctx context.Context, messages []models.ChatMessage) (*Outcome, error) {
	if l.config.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.Budget)
		defer cancel()
	}

	outcome := &Outcome{Messages: messages, State: StateAwaitingModel}
	definitions := l.executor.Definitions()

	for round := 0; ; round++ {
		if ctx.Err() != nil {
			return l.abort(outcome)
		}

		// On the final round the model may not call tools again.
		toolChoice := ""
		if round >= l.config.MaxToolRounds {
			toolChoice = "none"
		}

		outcome.State = StateAwaitingModel
		outcome.Iterations++
		completion, err := l.completion.Complete(ctx, outcome.Messages, definitions, toolChoice)
		if err != nil {
			if ctx.Err() != nil {
				return l.abort(outcome)
			}
			if errors.Is(err, llm.ErrCompletionTimeout) {
				metrics.ChatRequestsFailed.WithLabelValues(string(stderrors.ErrCodeCompletionTimeout)).Inc()
				return outcome, stderrors.NewCompletionTimeoutError()
			}
			metrics.ChatRequestsFailed.WithLabelValues(string(stderrors.ErrCodeCompletionFailed)).Inc()
			return outcome, stderrors.NewCompletionFailedError(err)
		}

		assistant := models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		}
		outcome.Messages = append(outcome.Messages, assistant)

		if len(completion.ToolCalls) == 0 || toolChoice == "none" {
			outcome.FinalText = completion.Text
			outcome.State = StateDone
			metrics.DispatchIterations.WithLabelValues(StateDone).Observe(float64(outcome.Iterations))
			metrics.ChatRequestsCompleted.WithLabelValues(StateDone).Inc()
			return outcome, nil
		}

		if ctx.Err() != nil {
			return l.abort(outcome)
		}

		outcome.State = StateExecutingTools
		results := l.executeAll(ctx, completion.ToolCalls, outcome)
		for _, result := range results {
			payload, _ := json.Marshal(result)
			outcome.Messages = append(outcome.Messages, models.ChatMessage{
				Role:       models.RoleTool,
				Name:       result.Name,
				ToolCallID: result.CallID,
				Content:    string(payload),
			})
		}
	}
}

// executeAll runs every same-turn tool call concurrently and returns the
// results in call order, so the tool messages line up with the assistant's
// tool_calls list.
func (l *Loop) executeAll(ctx context.Context, calls []models.ToolCall, outcome *Outcome) []*models.ToolResult {
	results := make([]*models.ToolResult, len(calls))
	elapsed := make([]int64, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call models.ToolCall) {
			defer wg.Done()
			start := time.Now()
			results[i] = l.executor.Execute(ctx, call)
			elapsed[i] = time.Since(start).Milliseconds()
		}(i, call)
	}
	wg.Wait()

	for i, result := range results {
		var args interface{}
		_ = json.Unmarshal([]byte(calls[i].Arguments), &args)
		outcome.Records = append(outcome.Records, models.ToolCallRecord{
			Name:      result.Name,
			Arguments: args,
			Summary:   result.Summary,
			Success:   result.Success,
			ElapsedMs: elapsed[i],
		})
	}

	l.logger.Debug("tool round completed", map[string]interface{}{
		"calls": len(calls),
	})

	return results
}

// abort closes the run with whatever narrative the model last produced.
func (l *Loop) abort(outcome *Outcome) (*Outcome, error) {
	outcome.State = StateAborted
	for i := len(outcome.Messages) - 1; i >= 0 && outcome.FinalText == ""; i-- {
		if outcome.Messages[i].Role == models.RoleAssistant {
			outcome.FinalText = outcome.Messages[i].Content
		}
	}
	metrics.DispatchIterations.WithLabelValues(StateAborted).Observe(float64(outcome.Iterations))
	metrics.ChatRequestsCompleted.WithLabelValues(StateAborted).Inc()
	l.logger.Warn("dispatch aborted", map[string]interface{}{
		"iterations": outcome.Iterations,
	})
	return outcome, context.DeadlineExceeded
}
