package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signage_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ScreenRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screen_registrations_total",
			Help: "Total number of screen registrations",
		},
	)

	ScreenHeartbeats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_screen_heartbeats_total",
			Help: "Total number of screen heartbeats by result",
		},
		[]string{"result"}, // "ok", "unknown"
	)

	ContentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_content_fetches_total",
			Help: "Total number of screen content fetches by result",
		},
		[]string{"result"}, // "ok", "not_modified", "unknown", "error"
	)

	ContentDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signage_content_downloads_total",
			Help: "Total number of media downloads by content type",
		},
		[]string{"content_type"},
	)

	ScreensMarkedOffline = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signage_screens_marked_offline_total",
			Help: "Total number of screens flipped offline by the liveness sweeper",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordHeartbeat(known bool) {
	if known {
		ScreenHeartbeats.WithLabelValues("ok").Inc()
		return
	}
	ScreenHeartbeats.WithLabelValues("unknown").Inc()
}

func RecordContentFetch(result string) {
	ContentFetches.WithLabelValues(result).Inc()
}

func RecordDownload(contentType string) {
	ContentDownloads.WithLabelValues(contentType).Inc()
}
