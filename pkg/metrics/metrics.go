package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// BatchCommits counts atomic batch writes by collection and outcome (ok|error).
	BatchCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "store_batch_commits_total", Help: "Atomic batch writes by collection and outcome."},
		[]string{"collection", "outcome"},
	)
	BatchOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "store_batch_ops_total", Help: "Records touched by committed batches, by operation kind."},
		[]string{"collection", "op"},
	)
	EventsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "schedule_events_generated_total", Help: "Events produced by the recurring schedule generator."},
	)
	Subscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "staffboard", Name: "live_subscriptions", Help: "Active live subscriptions by collection."},
		[]string{"collection"},
	)
	SubscriptionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "staffboard", Name: "live_snapshot_errors_total", Help: "Failed snapshot reloads delivered to subscribers."},
		[]string{"collection"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(BatchCommits)
	reg.MustRegister(BatchOps)
	reg.MustRegister(EventsGenerated)
	reg.MustRegister(Subscriptions)
	reg.MustRegister(SubscriptionErrors)
}
