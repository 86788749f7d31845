// Package errors provides standardized error handling for the search engine.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeCompletionTimeout ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeCompletionFailed  ErrorCode = "COMPLETION_FAILED"

	ErrCodeUnknownTool      ErrorCode = "UNKNOWN_TOOL"
	ErrCodeToolArgsInvalid  ErrorCode = "TOOL_ARGS_INVALID"
	ErrCodeToolExecFailed   ErrorCode = "TOOL_EXEC_FAILED"

	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionTimeoutError creates a retryable completion timeout error.
func NewCompletionTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionTimeout,
		Message:   "Completion service timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionFailedError creates a completion service error.
func NewCompletionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionFailed,
		Message:   "Completion service error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownToolError creates a non-retryable unknown tool error.
func NewUnknownToolError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownTool,
		Message:   "Tool is not registered",
		Details:   fmt.Sprintf("tool: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolArgsInvalidError creates a non-retryable argument validation error.
// The caller reports it back to the model as a tool error so it can retry
// with corrected arguments.
func NewToolArgsInvalidError(tool, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolArgsInvalid,
		Message:   "Tool arguments failed validation",
		Details:   fmt.Sprintf("tool: %s, %s", tool, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolExecFailedError creates a tool execution error.
func NewToolExecFailedError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolExecFailed,
		Message:   "Tool execution failed",
		Details:   fmt.Sprintf("tool: %s, error: %s", tool, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a retryable geo catalog error.
func NewCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Geo catalog load error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Error Classification
// ==========================

// GetRetryCount returns how many retries a given error code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeElasticsearchConnectionFailed, ErrCodeSearchQueryFailed:
		return 3
	case ErrCodeSearchTimeout, ErrCodeCompletionTimeout, ErrCodeCompletionFailed, ErrCodeCatalogLoadFailed:
		return 1
	default:
		return 0
	}
}

// GetErrorCategory groups error codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeElasticsearchConnectionFailed, ErrCodeSearchQueryFailed, ErrCodeSearchTimeout, ErrCodeIndexNotFound:
		return "index"
	case ErrCodeCompletionTimeout, ErrCodeCompletionFailed:
		return "completion"
	case ErrCodeUnknownTool, ErrCodeToolArgsInvalid, ErrCodeToolExecFailed:
		return "tool"
	case ErrCodeCatalogLoadFailed:
		return "catalog"
	case ErrCodeInvalidRequest:
		return "request"
	default:
		return "internal"
	}
}

// IsRetryable reports whether an error carries a retryable code.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}
