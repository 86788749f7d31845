// internal/server/router.go
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-search/internal/common/logger"
)

// NewRouter wires the HTTP surface: the chat endpoint, health, and metrics.
func NewRouter(chat *ChatHandler, health *HealthHandler, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/chat/search", chat.ServeHTTP)
	r.Get("/healthz", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request", map[string]interface{}{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"elapsedMs": time.Since(start).Milliseconds(),
			})
		})
	}
}

// HealthHandler reports liveness plus dependency reachability.
type HealthHandler struct {
	checks map[string]func() error
}

func NewHealthHandler(checks map[string]func() error) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	detail := map[string]string{}

	for name, check := range h.checks {
		if err := check(); err != nil {
			status = http.StatusServiceUnavailable
			detail[name] = err.Error()
		} else {
			detail[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": http.StatusText(status),
		"checks": detail,
	})
}
