// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_completed_total",
			Help: "Total number of chat search requests completed",
		},
		[]string{"state"},
	)

	ChatRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_failed_total",
			Help: "Total number of chat search requests failed",
		},
		[]string{"error_code"},
	)

	DispatchIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_iterations",
			Help:    "Model turns taken per chat request",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
		[]string{"state"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of tool calls executed",
		},
		[]string{"tool", "outcome"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tool_call_duration_seconds",
			Help: "Duration of tool call execution in seconds",
		},
		[]string{"tool"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "completion_request_duration_seconds",
			Help: "Duration of completion service calls in seconds",
		},
		[]string{"outcome"},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "index_query_duration_seconds",
			Help: "Duration of property index queries in seconds",
		},
		[]string{"index"},
	)
)
