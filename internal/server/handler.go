// internal/server/handler.go
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"listing-search/internal/assemble"
	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/common/observability"
	"listing-search/internal/dispatch"
	"listing-search/internal/models"
)

const maxHistoryMessages = 40

// ChatRequest is the client request contract. History is the prior turns
// verbatim; the engine itself keeps no conversational state.
type ChatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

// ChatHandler runs one conversational search request end to end.
type ChatHandler struct {
	loop      *dispatch.Loop
	assembler *assemble.Assembler
	errors    *stderrors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

func NewChatHandler(loop *dispatch.Loop, assembler *assemble.Assembler, errHandler *stderrors.ErrorHandler, obs *observability.Observability, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		loop:      loop,
		assembler: assembler,
		errors:    errHandler,
		obs:       obs,
		logger:    log.With(map[string]interface{}{"component": "chat-handler"}),
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	started := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.WriteHTTPError(w, requestID, stderrors.NewInvalidRequestError("body is not valid JSON"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.errors.WriteHTTPError(w, requestID, stderrors.NewInvalidRequestError("message is required"))
		return
	}
	if len(req.History) > maxHistoryMessages {
		req.History = req.History[len(req.History)-maxHistoryMessages:]
	}

	messages := make([]models.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: req.Message})

	h.logger.Info("chat request", map[string]interface{}{
		"requestId": requestID,
		"history":   len(req.History),
	})

	outcome, err := h.loop.Run(r.Context(), messages)
	if err != nil && outcome.State != dispatch.StateAborted {
		h.errors.WriteHTTPError(w, requestID, err)
		return
	}

	// An aborted run still returns whatever was assembled so the client can
	// show partial progress alongside the aborted state.
	response := h.assembler.Assemble(requestID, outcome, started)

	if h.obs != nil {
		h.obs.RecordRequest(r.Context(), outcome.State)
		h.obs.RecordRequestDuration(r.Context(), time.Since(started), outcome.State)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("failed to write response", map[string]interface{}{
			"requestId": requestID,
		})
	}
}
