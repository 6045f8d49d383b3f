package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_accepted_total",
		Help: "Behavioral events persisted, by kind",
	}, []string{"kind"})

	EventsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_rejected_total",
		Help: "Behavioral events rejected before persistence, by reason",
	}, []string{"reason"})

	// Oracle attempts by chain stage, provider and outcome
	// (ok, timeout, transport, parse, schema).
	OracleAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_attempts_total",
		Help: "Oracle calls by stage, provider and outcome",
	}, []string{"stage", "provider", "outcome"})

	OracleLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oracle_latency_seconds",
		Help:    "Latency of single oracle calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage", "provider"})

	SignalBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_builds_total",
		Help: "Signal builds by outcome and priority",
	}, []string{"outcome", "priority"})

	AlertsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_alerts_created_total",
		Help: "Alert records created, by alert type",
	}, []string{"alert_type"})

	// Snapshot written but alert write failed.
	AlertWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_alert_write_failures_total",
		Help: "Alert writes that failed after a successful snapshot write",
	})

	CopyCompositions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "copy_compositions_total",
		Help: "Copy compositions by provider and fallback flag",
	}, []string{"provider", "fallback"})

	PreferencesUpserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preferences_upserted_total",
		Help: "Inferred preference rows written",
	})

	PlanLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_compose_latency_seconds",
		Help:    "Latency of daily plan composition",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	FrequencyFeedback = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_frequency_feedback_total",
		Help: "Show-me-less actions by outcome",
	}, []string{"outcome"})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			EventsAccepted,
			EventsRejected,
			OracleAttempts,
			OracleLatency,
			SignalBuilds,
			AlertsCreated,
			AlertWriteFailures,
			CopyCompositions,
			PreferencesUpserted,
			PlanLatency,
			FrequencyFeedback,
		)
	})
}
