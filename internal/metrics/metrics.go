package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_messages_processed_total",
	Help: "Group messages seen by the moderator, by outcome",
}, []string{"outcome"})

var ClassifierDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "antijudi_classifier_duration_seconds",
	Help:    "Latency of classification requests",
	Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
}, []string{"provider"})

var ClassifierErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_classifier_errors_total",
	Help: "Failed classification requests",
}, []string{"provider"})

var SanctionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_sanctions_total",
	Help: "Sanction actions by kind, origin and result",
}, []string{"action", "origin", "result"})

var GatewayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_gateway_calls_total",
	Help: "Messaging platform calls by method and result",
}, []string{"method", "result"})

var Reclassified = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_reclassified_messages_total",
	Help: "Messages moved between logs, by target log",
}, []string{"target"})

var StoreConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_store_conflicts_total",
	Help: "Optimistic concurrency conflicts that caused an update retry",
}, []string{"collection"})

var StoreUpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "antijudi_store_update_duration_seconds",
	Help:    "Time spent in coordinated store updates, including lock waits",
	Buckets: prometheus.DefBuckets,
})

var ActiveMutes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "antijudi_active_mutes",
	Help: "Mute entries seen by the last scheduler tick",
})

var SchedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antijudi_scheduler_ticks_total",
	Help: "Mute scheduler ticks by result",
}, []string{"result"})

// Result converts an error into a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
