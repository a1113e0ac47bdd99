package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powerflow_upstream_requests_total",
			Help: "Total number of requests to the billing API per resource and method",
		},
		[]string{"resource", "method"},
	)

	UpstreamRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "powerflow_upstream_request_duration_seconds",
			Help:    "Billing API request duration in seconds per resource and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "method"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powerflow_upstream_errors_total",
			Help: "Total number of failed billing API requests per resource, method and code",
		},
		[]string{"resource", "method", "code"},
	)

	BootstrapFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "powerflow_bootstrap_fallbacks_total",
			Help: "Times the bootstrap load failed and sample data was installed instead",
		},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "powerflow_http_request_duration_seconds",
			Help:    "Dashboard HTTP request duration in seconds per route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "powerflow_websocket_clients",
			Help: "Currently connected dashboard websocket clients",
		},
	)
)

var (
	ResyncLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "powerflow_resync_last_run_timestamp",
			Help: "Unix timestamp of the last completed re-sync run",
		},
	)

	ResyncLastDurationSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "powerflow_resync_last_duration_seconds",
			Help: "Duration of the last completed re-sync run",
		},
	)

	ResyncFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "powerflow_resync_failures_total",
			Help: "Total number of failed re-sync runs",
		},
	)
)

// UpdateResyncMetrics records one completed re-sync run.
func UpdateResyncMetrics(startedAt time.Time, err error) {
	ResyncLastDurationSeconds.Set(time.Since(startedAt).Seconds())
	ResyncLastRun.Set(float64(time.Now().Unix()))
	if err != nil {
		ResyncFailuresTotal.Inc()
	}
}
