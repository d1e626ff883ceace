package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	extractionTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_engine_extraction_tier_total",
			Help: "Query spec extraction successes by parsing tier.",
		},
		[]string{"tier"},
	)

	storeExecutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "query_engine_store_execution_seconds",
			Help:    "Document store execution latency by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	modelInvocationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "query_engine_model_invocation_seconds",
			Help:    "Language model invocation latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "query_engine_result_cache_hits_total",
			Help: "Total number of formatted-result cache hits.",
		},
	)

	validatorWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "query_engine_validator_warnings_total",
			Help: "Total number of advisory query validation warnings.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRunsTotal,
		extractionTierTotal,
		storeExecutionSeconds,
		modelInvocationSeconds,
		cacheHitsTotal,
		validatorWarningsTotal,
	)
}

// ObservePipelineRun records the outcome of a pipeline run. Outcome is either
// "success" or the error kind.
func ObservePipelineRun(outcome string) {
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveExtractionTier records which parsing tier produced the query spec.
func ObserveExtractionTier(tier string) {
	extractionTierTotal.WithLabelValues(tier).Inc()
}

// ObserveStoreExecution records store execution latency for an operation.
func ObserveStoreExecution(operation string, d time.Duration) {
	storeExecutionSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveModelInvocation records model invocation latency.
func ObserveModelInvocation(d time.Duration) {
	modelInvocationSeconds.Observe(d.Seconds())
}

// ObserveCacheHit records a formatted-result cache hit.
func ObserveCacheHit() {
	cacheHitsTotal.Inc()
}

// ObserveValidatorWarnings records advisory validation warnings.
func ObserveValidatorWarnings(n int) {
	validatorWarningsTotal.Add(float64(n))
}
