// internal/tools/registry.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/common/metrics"
	"listing-search/internal/common/validation"
	"listing-search/internal/llm"
	"listing-search/internal/models"
)

// Handler executes one named operation. Execute returns the payload for the
// model plus a one-line summary for the response metadata log.
type Handler interface {
	Name() string
	Description() string
	Schema() validation.JSONSchema
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error)
}

// Registry holds the registered handlers and runs validation before any of
// them sees arguments. A failed call never surfaces as a Go error: the
// failure is folded into the ToolResult so the model can react to it.
type Registry struct {
	handlers map[string]Handler
	logger   logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		handlers: map[string]Handler{},
		logger:   log.With(map[string]interface{}{"component": "tool-registry"}),
	}
}

// Register adds a handler. The schema is compiled with a real JSON Schema
// validator once at registration so a malformed schema fails at startup,
// not on the first model call.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	raw, err := json.Marshal(h.Schema())
	if err != nil {
		return fmt.Errorf("tool %s: schema not serializable: %w", name, err)
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw)); err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", name, err)
	}

	r.handlers[name] = h
	r.logger.Debug("tool registered", map[string]interface{}{"tool": name})
	return nil
}

// Definitions returns the tool list for the completion request, in stable
// name order.
func (r *Registry) Definitions() []llm.Tool {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		h := r.handlers[name]
		defs = append(defs, definition(h.Name(), h.Description(), h.Schema()))
	}
	return defs
}

// Execute runs one tool call end to end: decode arguments, validate against
// the schema, run the handler. Every failure mode produces a structured
// error result; the returned ToolResult is always non-nil.
func (r *Registry) Execute(ctx context.Context, call models.ToolCall) *models.ToolResult {
	result := &models.ToolResult{CallID: call.ID, Name: call.Name}

	handler, ok := r.handlers[call.Name]
	if !ok {
		stdErr := stderrors.NewUnknownToolError(call.Name)
		r.logger.Warn("unknown tool requested", map[string]interface{}{"tool": call.Name})
		metrics.ToolCallsTotal.WithLabelValues(call.Name, "unknown").Inc()
		result.Error = &models.ToolError{Code: string(stdErr.Code), Message: stdErr.Message}
		result.Summary = "unknown tool"
		return result
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			stdErr := stderrors.NewToolArgsInvalidError(call.Name, "arguments are not valid JSON")
			metrics.ToolCallsTotal.WithLabelValues(call.Name, "invalid_args").Inc()
			result.Error = &models.ToolError{Code: string(stdErr.Code), Message: "arguments are not valid JSON"}
			result.Summary = "invalid arguments"
			return result
		}
	}

	if vr := validation.ValidateInput(args, handler.Schema()); !vr.Valid {
		detail := strings.Join(vr.GetErrorMessages(), "; ")
		stdErr := stderrors.NewToolArgsInvalidError(call.Name, detail)
		r.logger.Warn("tool arguments rejected", map[string]interface{}{
			"tool":   call.Name,
			"detail": detail,
		})
		metrics.ToolCallsTotal.WithLabelValues(call.Name, "invalid_args").Inc()
		result.Error = &models.ToolError{Code: string(stdErr.Code), Message: detail}
		result.Summary = "invalid arguments"
		return result
	}

	start := time.Now()
	data, summary, err := handler.Execute(ctx, args)
	elapsed := time.Since(start)
	metrics.ToolCallDuration.WithLabelValues(call.Name).Observe(elapsed.Seconds())

	if err != nil {
		stdErr := stderrors.NewToolExecFailedError(call.Name, err)
		r.logger.WithError(err).Error("tool execution failed", map[string]interface{}{
			"tool":      call.Name,
			"elapsedMs": elapsed.Milliseconds(),
		})
		metrics.ToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
		result.Error = &models.ToolError{Code: string(stdErr.Code), Message: stdErr.Message}
		result.Summary = "execution failed"
		return result
	}

	metrics.ToolCallsTotal.WithLabelValues(call.Name, "success").Inc()
	result.Success = true
	result.Data = data
	result.Summary = summary
	return result
}
