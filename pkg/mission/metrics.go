package mission

import "github.com/prometheus/client_golang/prometheus"

var (
	stageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_stage_total",
		Help: "Count of mission stage outcomes by stage name and status.",
	}, []string{"stage", "status"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "mission_stage_duration_seconds",
		Help: "Duration of mission stage execution in seconds.",
	}, []string{"stage"})

	qualityGateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_quality_gate_total",
		Help: "Count of quality gate decisions by stage and decision.",
	}, []string{"stage", "decision"})

	outboxPersistTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_outbox_persist_total",
		Help: "Count of mission bundles persisted to the outbox by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(stageTotal, stageDuration, qualityGateTotal, outboxPersistTotal)
}
