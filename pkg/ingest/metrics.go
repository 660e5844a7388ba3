package ingest

import "github.com/prometheus/client_golang/prometheus"

// Metric names and labels follow spec §4.8 exactly: counter
// ingest_stage_total{stage,status}, histogram
// ingest_stage_duration_seconds{stage}, counter
// ingest_degradation_total{stage,reason}. Registered against the default
// registry at package init, matching the teacher's process-wide singleton
// metrics convention (no per-request registry plumbing).
var (
	stageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "ingest_stage_total",
		Help:      "Count of ingestion pipeline stage completions by outcome.",
	}, []string{"stage", "status"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "ingest_stage_duration_seconds",
		Help:      "Ingestion pipeline stage duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	degradationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "ingest_degradation_total",
		Help:      "Count of ingestion pipeline degradation events by stage and reason.",
	}, []string{"stage", "reason"})
)

func init() {
	prometheus.MustRegister(stageTotal, stageDuration, degradationTotal)
}
