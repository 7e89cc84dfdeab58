package prometheus

import (
	"time"

	"agritrade/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Listing metrics
	ListingOperationsCounter prometheus.CounterVec
	ListingExpiredCounter    prometheus.Counter

	// Deal metrics
	DealsConfirmedCounter     prometheus.Counter
	QuantityRejectionsCounter prometheus.Counter

	// Contract metrics
	ContractOperationsCounter prometheus.CounterVec
	ContractsSignedCounter    prometheus.Counter
	ContractsCompletedCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Listing metrics
	ListingOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_listing_operations_total",
			Help: "Total number of requirement/supply listing operations",
		},
		[]string{"listing_type", "operation"},
	)

	ListingExpiredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_listings_expired_total",
			Help: "Total number of listings withdrawn by the expiry sweep",
		},
	)

	// Deal metrics
	DealsConfirmedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_deals_confirmed_total",
			Help: "Total number of confirmed deals",
		},
	)

	QuantityRejectionsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_deal_quantity_rejections_total",
			Help: "Total number of deal confirmations rejected for exceeding remaining quantity",
		},
	)

	// Contract metrics
	ContractOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_contract_operations_total",
			Help: "Total number of contract operations",
		},
		[]string{"operation"},
	)

	ContractsSignedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_contracts_signed_total",
			Help: "Total number of contracts fully signed",
		},
	)

	ContractsCompletedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_contracts_completed_total",
			Help: "Total number of contracts completed",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordListingOperation increments the counter for listing operations
func RecordListingOperation(listingType string, operation string) {
	ListingOperationsCounter.WithLabelValues(listingType, operation).Inc()
}

// RecordContractOperation increments the counter for contract operations
func RecordContractOperation(operation string) {
	ContractOperationsCounter.WithLabelValues(operation).Inc()
}
