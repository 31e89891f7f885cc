// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stepwise_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route and status",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"method", "route", "status"},
	)

	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stepwise_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds by purpose and model",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to ~2m
		},
		[]string{"purpose", "model", "status"},
	)

	llmTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepwise_llm_tokens_total",
			Help: "Tokens consumed by LLM requests",
		},
		[]string{"model", "direction"}, // direction: "input"/"output"
	)

	annotationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepwise_annotation_transitions_total",
			Help: "Annotation state machine transitions by event and result",
		},
		[]string{"event", "result"},
	)

	problemSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepwise_problem_selections_total",
			Help: "Random problem selections by result",
		},
		[]string{"result"}, // "hit"/"empty"
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one handled HTTP request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveLLM records one LLM round trip.
func ObserveLLM(purpose, model string, d time.Duration, inputTokens, outputTokens int, success bool) {
	llmRequestDuration.WithLabelValues(purpose, model, status(success)).Observe(d.Seconds())
	if inputTokens > 0 {
		llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordTransition counts an annotation state machine event.
func RecordTransition(event string, err error) {
	annotationTransitions.WithLabelValues(event, status(err == nil)).Inc()
}

// RecordSelection counts a random problem selection.
func RecordSelection(found bool) {
	result := "hit"
	if !found {
		result = "empty"
	}
	problemSelections.WithLabelValues(result).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
