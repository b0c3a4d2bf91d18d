// Package metrics defines the Prometheus collectors of the recommendation pipeline.
//
// Collectors register on the default registry at init; the worker exposes them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts generated recommendation lists by scoring path.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_recommendations_total",
			Help: "Total number of recommendation lists generated",
		},
		[]string{"path"}, // path: "rules", "evaluator", "empty"
	)

	// PipelineDuration tracks end-to-end recommendation latency.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_pipeline_duration_seconds",
			Help:    "Duration of recommendation generation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"path"},
	)

	// CandidatesTotal counts retrieved candidates by source.
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_candidates_total",
			Help: "Total number of retrieved candidates",
		},
		[]string{"source"}, // source: "vector", "vector_unfiltered", "text", "graph"
	)

	// EvaluatorAttemptsTotal counts evaluator calls by outcome.
	EvaluatorAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_evaluator_attempts_total",
			Help: "Total number of evaluator batch attempts",
		},
		[]string{"result"}, // result: "success", "rate_limit", "token", "parse", "unavailable", "error"
	)

	// EvaluatorFallbacksTotal counts postings that received the fallback assessment.
	EvaluatorFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_evaluator_fallbacks_total",
			Help: "Total number of postings scored with the fallback assessment",
		},
		[]string{"kind"},
	)

	// CircuitBreakerState reports breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommender_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// CacheLookupsTotal counts required-skill cache lookups.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_cache_lookups_total",
			Help: "Total number of required-skill cache lookups",
		},
		[]string{"result"}, // result: "hit", "miss", "error"
	)

	// JobsTotal counts queue jobs processed by the worker.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_worker_jobs_total",
			Help: "Total number of recommendation jobs processed by the worker",
		},
		[]string{"status"}, // status: "done", "failed", "invalid"
	)
)

// ObservePipeline records a finished pipeline run.
func ObservePipeline(path string, started time.Time) {
	RecommendationsTotal.WithLabelValues(path).Inc()
	PipelineDuration.WithLabelValues(path).Observe(time.Since(started).Seconds())
}

// AddCandidates records n candidates retrieved from source. Zero counts are skipped.
func AddCandidates(source string, n int) {
	if n <= 0 {
		return
	}
	CandidatesTotal.WithLabelValues(source).Add(float64(n))
}
