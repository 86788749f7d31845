// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "listing-search/internal/common/http"
	"listing-search/internal/common/logger"
	"listing-search/internal/common/metrics"
	"listing-search/internal/models"
)

var (
	ErrCompletionTimeout = errors.New("COMPLETION_TIMEOUT")
	ErrCompletionFailed  = errors.New("COMPLETION_FAILED")
)

// Config holds the completion service connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{"component": "completion-client"}),
	}
}

// Complete sends the conversation and available tools to the model and
// returns its next turn. toolChoice "none" forbids further tool calls; an
// empty string leaves the choice to the model.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage, tools []Tool, toolChoice string) (*Completion, error) {
	reqBody := Request{
		Model:       c.config.Model,
		Messages:    toWire(messages),
		Tools:       tools,
		ToolChoice:  toolChoice,
		Temperature: c.config.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrCompletionFailed, err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.http.DoWithRetry(ctx, req, payload, c.config.MaxRetries)
	elapsed := time.Since(start)
	if err != nil {
		metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrCompletionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	defer resp.Body.Close()

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return nil, fmt.Errorf("%w: decode response: %v", ErrCompletionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		// Upstream detail goes to the log, never to the caller's message.
		c.logger.Error("completion request rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"detail": msg,
		})
		return nil, fmt.Errorf("%w: status %d", ErrCompletionFailed, resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return nil, fmt.Errorf("%w: empty choices", ErrCompletionFailed)
	}

	metrics.CompletionDuration.WithLabelValues("success").Observe(elapsed.Seconds())

	choice := parsed.Choices[0]
	completion := &Completion{Text: choice.Message.Content}
	for _, wtc := range choice.Message.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, models.ToolCall{
			ID:        wtc.ID,
			Name:      wtc.Function.Name,
			Arguments: wtc.Function.Arguments,
		})
	}

	c.logger.Debug("completion received", map[string]interface{}{
		"toolCalls": len(completion.ToolCalls),
		"hasText":   completion.Text != "",
		"elapsedMs": elapsed.Milliseconds(),
	})

	return completion, nil
}
