// backend-go/internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide registry exposed at /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		TrainDuration, PlansTotal, ItemsRanked,
		CacheLookups, BatchFiles,
	)
}

// TrainDuration is the time spent fitting a planner model (seconds).
var TrainDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "planner_train_duration_seconds",
		Help:    "Time spent fitting a distribution model.",
		Buckets: prometheus.DefBuckets,
	},
)

// PlansTotal counts planning requests by outcome.
var PlansTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planner_plans_total",
		Help: "Distribution plans produced, by result.",
	},
	[]string{"result"}, // ok | empty | user_error | error
)

// ItemsRanked counts inventory rows ranked across all plans.
var ItemsRanked = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "planner_items_ranked_total",
		Help: "Inventory rows ranked across all plans.",
	},
)

// CacheLookups counts plan cache lookups.
var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planner_cache_lookups_total",
		Help: "Plan cache lookups, by result.",
	},
	[]string{"result"}, // hit | miss | error
)

// BatchFiles counts inventory files processed by the batch runner.
var BatchFiles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planner_batch_files_total",
		Help: "Inventory files processed by the batch runner, by status.",
	},
	[]string{"status"}, // completed | failed
)

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
