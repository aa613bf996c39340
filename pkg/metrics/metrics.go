package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quddle_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks handler latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quddle_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WalletTransfersTotal counts ledger transfers by reference type and outcome
	WalletTransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quddle_wallet_transfers_total",
			Help: "Total number of wallet transfers",
		},
		[]string{"reference_type", "status"},
	)

	// AdEventsTotal counts impression/click attempts by outcome
	AdEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quddle_ad_events_total",
			Help: "Total number of ad impression and click events",
		},
		[]string{"event", "status"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quddle_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// TranscodeTasksTotal counts transcode dispatches by outcome
	TranscodeTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quddle_transcode_tasks_total",
			Help: "Total number of transcode tasks published",
		},
		[]string{"status"},
	)
)

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
