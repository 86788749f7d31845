// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler converts engine errors into client-safe HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the body sent to clients. Raw upstream payloads never
// appear here, only the plain-language message.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteHTTPError normalizes err, logs the full detail, and writes a
// plain-language message with an empty result set.
func (h *ErrorHandler) WriteHTTPError(w http.ResponseWriter, requestID string, err error) {
	stdErr := h.normalizeError(err)

	h.logger.Error("request failed", map[string]interface{}{
		"requestId":     requestID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: userMessage(stdErr.Code),
		Code:  string(stdErr.Code),
	})
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func httpStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeSearchTimeout, ErrCodeCompletionTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeElasticsearchConnectionFailed, ErrCodeSearchQueryFailed,
		ErrCodeCompletionFailed, ErrCodeCatalogLoadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(code ErrorCode) string {
	switch GetErrorCategory(code) {
	case "completion":
		return "I'm having trouble generating a response right now. Please try again in a moment."
	case "index", "catalog":
		return "I couldn't reach the listing data right now. Please try again in a moment."
	case "request":
		return "That request couldn't be understood. Please rephrase and try again."
	default:
		return "Something went wrong on our side. Please try again."
	}
}
