package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels completed queries and chunk analyses.
	OutcomeSuccess = "success"
	// OutcomeError labels degraded queries and failed chunk analyses.
	OutcomeError = "error"
)

var (
	insightsQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autofix",
			Name:      "insights_queries_total",
			Help:      "Total log-store queries issued, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	windowSplitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "autofix",
			Name:      "window_splits_total",
			Help:      "Number of query windows bisected after hitting the result cap.",
		},
	)

	chunkAnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autofix",
			Name:      "chunk_analyses_total",
			Help:      "Worker chunk analyses performed, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "autofix",
			Name:      "analysis_seconds",
			Help:      "End-to-end analysis run latency in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)
)

// Register attaches the analyzer collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		insightsQueriesTotal,
		windowSplitsTotal,
		chunkAnalysesTotal,
		analysisDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records one log-store query outcome.
func ObserveQuery(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	insightsQueriesTotal.WithLabelValues(label).Inc()
}

// ObserveSplit records a window bisection.
func ObserveSplit() {
	windowSplitsTotal.Inc()
}

// ObserveChunkAnalysis records one worker call outcome.
func ObserveChunkAnalysis(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	chunkAnalysesTotal.WithLabelValues(label).Inc()
}

// ObserveAnalysisRun records the wall-clock duration of a full run.
func ObserveAnalysisRun(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}
