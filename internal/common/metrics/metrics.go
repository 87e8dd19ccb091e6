// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Checkout sessions created, by plan",
		},
		[]string{"plan"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Stripe webhook deliveries by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	ResultsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "results_requests_total",
			Help: "Results requests by plan and outcome code",
		},
		[]string{"plan", "outcome"},
	)

	InventoryShortages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_shortages_total",
			Help: "Allocations rejected by the inventory gate",
		},
		[]string{"plan"},
	)

	PicksByTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_picks_total",
			Help: "Shops returned by match tier",
		},
		[]string{"tier"},
	)

	DatastoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_query_duration_seconds",
			Help:    "Datastore call latency by backend and operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Redis cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
