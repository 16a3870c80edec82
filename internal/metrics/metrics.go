package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OAuth connection metrics
var (
	// OAuthConnectsTotal counts authorization URLs handed out per platform
	OAuthConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_connect_total",
			Help: "Authorization URLs issued by platform",
		},
		[]string{"platform"},
	)

	// OAuthCallbacksTotal counts callback outcomes per platform
	OAuthCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_callback_total",
			Help: "OAuth callbacks by platform and result",
		},
		[]string{"platform", "result"},
	)

	// TokenRefreshTotal counts access token refresh attempts
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_token_refresh_total",
			Help: "Token refresh attempts by platform and result",
		},
		[]string{"platform", "result"},
	)
)

// Analytics metrics
var (
	// AnalyticsFetchTotal counts provider fetches per platform and result
	AnalyticsFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_fetch_total",
			Help: "Analytics fetches by platform and result",
		},
		[]string{"platform", "result"},
	)

	// AnalyticsFetchDuration tracks provider fetch latency in seconds
	AnalyticsFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_fetch_duration_seconds",
			Help:    "Analytics fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"platform"},
	)

	// AnalyticsPartialFetches counts fetches that completed with warnings
	AnalyticsPartialFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_partial_fetch_total",
			Help: "Analytics fetches that succeeded with skipped sub-fetches",
		},
		[]string{"platform"},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by platform and new state",
		},
		[]string{"platform", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"platform"},
	)
)

// Background job metrics
var (
	// JobRunsTotal counts cron job runs
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs by job and result",
		},
		[]string{"job", "result"},
	)
)

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
