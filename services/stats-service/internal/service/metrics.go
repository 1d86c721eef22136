package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream API
	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netrefer_upstream_request_duration_seconds",
		Help:    "Duration of NetRefer GraphQL requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netrefer_upstream_requests_total",
		Help: "Total number of NetRefer GraphQL requests",
	}, []string{"query", "result"})

	upstreamPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netrefer_upstream_pages_fetched_total",
		Help: "Total number of result pages read from NetRefer",
	}, []string{"query"})

	tokenFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netrefer_token_fetches_total",
		Help: "Total number of access token requests",
	}, []string{"result"})

	// Statistics
	statisticsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btag_statistics_requests_total",
		Help: "Total number of btag statistics computations",
	}, []string{"result"})

	// HTTP
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stats_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func observeUpstreamRequest(query string, duration time.Duration, err error) {
	upstreamRequestDuration.WithLabelValues(query).Observe(duration.Seconds())
	upstreamRequests.WithLabelValues(query, resultLabel(err)).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path string, duration float64, statusCode int) {
	status := statusClass(statusCode)
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	httpRequests.WithLabelValues(method, path, status).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
