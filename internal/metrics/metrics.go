package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation run metrics.
var (
	SamplesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openeval_samples_processed_total",
		Help: "Dataset samples processed",
	})

	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openeval_generations_total",
		Help: "Raw generations by extraction result",
	}, []string{"result"})

	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openeval_parse_failures_total",
		Help: "Generations whose code could not be extracted",
	})
)

// Provider metrics.
var (
	LLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openeval_llm_calls_total",
		Help: "Completion API calls by provider and result",
	}, []string{"provider", "result"})

	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openeval_llm_call_duration_seconds",
		Help:    "Completion API call duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})
)
