package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPRequestSize       prometheus.HistogramVec
	HTTPResponseSize      prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Share pipeline metrics
	SharesTotal          prometheus.CounterVec
	ShareDuration        prometheus.HistogramVec
	ShareTargetCount     prometheus.HistogramVec
	SpamScore            prometheus.HistogramVec
	SpamBlockedTotal     prometheus.CounterVec
	NotificationsTotal   prometheus.CounterVec
	ErrorLogEntriesTotal prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Database metrics
	DatabaseQueryDuration   prometheus.HistogramVec
	DatabaseQueriesTotal    prometheus.CounterVec
	DatabaseConnectionsOpen prometheus.GaugeVec

	// Redis metrics
	RedisOperationDuration prometheus.HistogramVec
	RedisOperationsTotal   prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			// HTTP metrics
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			// Share pipeline metrics
			SharesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "shares_total",
					Help: "Total share attempts by kind and outcome",
				},
				[]string{"share_kind", "outcome"},
			),
			ShareDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "share_pipeline_duration_seconds",
					Help:    "End-to-end share pipeline latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"share_kind"},
			),
			ShareTargetCount: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "share_target_count",
					Help:    "Number of valid targets per successful share",
					Buckets: []float64{1, 2, 5, 10, 25, 50},
				},
				[]string{"share_kind"},
			),
			SpamScore: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "spam_score",
					Help:    "Spam detector scores for share messages",
					Buckets: []float64{0, 10, 25, 50, 80, 100, 150},
				},
				[]string{"share_kind"},
			),
			SpamBlockedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "spam_blocked_total",
					Help: "Shares blocked by the spam detector",
				},
				[]string{"share_kind"},
			),
			NotificationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "share_notifications_total",
					Help: "Stream notification sends by operation and status",
				},
				[]string{"operation", "status"},
			),
			ErrorLogEntriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "error_log_entries_total",
					Help: "Error log entries recorded, by category and severity",
				},
				[]string{"category", "severity"},
			),

			// Cache metrics
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			// Rate limiting metrics
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by rate limiting",
				},
				[]string{"scope", "limit_type"},
			),

			// Database metrics
			DatabaseQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"query_type", "table", "status"},
			),
			DatabaseConnectionsOpen: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "database_connections_open",
					Help: "Number of open database connections",
				},
				[]string{"database"},
			),

			// Redis metrics
			RedisOperationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "redis_operation_duration_seconds",
					Help:    "Redis operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation"},
			),
			RedisOperationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "redis_operations_total",
					Help: "Total number of Redis operations",
				},
				[]string{"operation", "status"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}

// RecordShareOutcome records a share attempt's outcome ("success" or the
// failure category)
func RecordShareOutcome(shareKind, outcome string) {
	Get().SharesTotal.WithLabelValues(shareKind, outcome).Inc()
}

// RecordShareSuccess records latency and target fan-out for a successful share
func RecordShareSuccess(shareKind string, seconds float64, targetCount int) {
	m := Get()
	m.SharesTotal.WithLabelValues(shareKind, "success").Inc()
	m.ShareDuration.WithLabelValues(shareKind).Observe(seconds)
	m.ShareTargetCount.WithLabelValues(shareKind).Observe(float64(targetCount))
}

// RecordSpamScore records a detector score, counting blocks separately
func RecordSpamScore(shareKind string, score int, blocked bool) {
	m := Get()
	m.SpamScore.WithLabelValues(shareKind).Observe(float64(score))
	if blocked {
		m.SpamBlockedTotal.WithLabelValues(shareKind).Inc()
	}
}

// RecordNotification records a stream send attempt
func RecordNotification(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Get().NotificationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordErrorLogged counts an error log entry
func RecordErrorLogged(category, severity string) {
	Get().ErrorLogEntriesTotal.WithLabelValues(category, severity).Inc()
}

// RecordRateLimitExceeded counts a rejected request. Scope is "ip" for the
// transport limiter or "actor" for the share limiter.
func RecordRateLimitExceeded(scope, limitType string) {
	Get().RateLimitExceededTotal.WithLabelValues(scope, limitType).Inc()
}

// RecordCacheHit and RecordCacheMiss track named in-process/redis caches
func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}
