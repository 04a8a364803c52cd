package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// News pipeline metrics
	NewsFetchRequestsTotal *prometheus.CounterVec
	NewsFetchDuration      *prometheus.HistogramVec
	NewsFetchErrorsTotal   *prometheus.CounterVec
	NewsArticlesFetched    *prometheus.HistogramVec
	NewsWindowExpansions   *prometheus.CounterVec

	// Collector metrics
	CollectorRequestsTotal *prometheus.CounterVec
	CollectorErrorsTotal   *prometheus.CounterVec
	CollectorDuration      *prometheus.HistogramVec
	CollectorRateLimited   *prometheus.CounterVec

	// Sentiment metrics
	SentimentCallsTotal      *prometheus.CounterVec
	SentimentCacheHitsTotal  *prometheus.CounterVec
	SentimentCacheMissTotal  *prometheus.CounterVec
	SentimentScoreHistogram  *prometheus.HistogramVec
	SentimentDuration        *prometheus.HistogramVec
	AggregationDuration      *prometheus.HistogramVec
	AggregationImpactCounter *prometheus.CounterVec

	// Support/resistance metrics
	LevelDetectionDuration  *prometheus.HistogramVec
	LevelDetectionErrors    *prometheus.CounterVec
	LevelsDetectedHistogram *prometheus.HistogramVec
	LevelCacheHitsTotal     *prometheus.CounterVec
	LevelCacheMissTotal     *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// countBuckets are histogram buckets for small integer counts (article/level counts)
var countBuckets = []float64{0, 1, 2, 5, 10, 20, 50, 100}

// scoreBuckets are histogram buckets for sentiment scores (-1 to 1)
var scoreBuckets = []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		NewsFetchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "news_fetch",
				Name:      "requests_total",
				Help:      "Total number of news fetch pipeline runs",
			},
			[]string{"symbol"},
		),
		NewsFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "news_fetch",
				Name:      "duration_seconds",
				Help:      "Duration of the news fetch pipeline in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		NewsFetchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "news_fetch",
				Name:      "errors_total",
				Help:      "Total number of news fetch pipeline errors",
			},
			[]string{"symbol", "error_type"},
		),
		NewsArticlesFetched: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "news_fetch",
				Name:      "articles",
				Help:      "Number of articles returned per fetch",
				Buckets:   countBuckets,
			},
			[]string{"symbol"},
		),
		NewsWindowExpansions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "news_fetch",
				Name:      "window_expansions_total",
				Help:      "Total number of dynamic time-window expansions",
			},
			[]string{"symbol"},
		),

		CollectorRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "collector",
				Name:      "requests_total",
				Help:      "Total number of collector requests",
			},
			[]string{"source"},
		),
		CollectorErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "collector",
				Name:      "errors_total",
				Help:      "Total number of collector errors",
			},
			[]string{"source", "error_type"},
		),
		CollectorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "collector",
				Name:      "duration_seconds",
				Help:      "Duration of a single collector call in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"source"},
		),
		CollectorRateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "collector",
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by the local rate limiter",
			},
			[]string{"source"},
		),

		SentimentCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "sentiment",
				Name:      "llm_calls_total",
				Help:      "Total number of LLM sentiment calls made (cache misses)",
			},
			[]string{"provider"},
		),
		SentimentCacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "sentiment",
				Name:      "cache_hits_total",
				Help:      "Total number of semantic cache hits",
			},
			[]string{"symbol"},
		),
		SentimentCacheMissTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "sentiment",
				Name:      "cache_misses_total",
				Help:      "Total number of semantic cache misses",
			},
			[]string{"symbol"},
		),
		SentimentScoreHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "sentiment",
				Name:      "score",
				Help:      "Distribution of per-article sentiment scores",
				Buckets:   scoreBuckets,
			},
			[]string{"symbol"},
		),
		SentimentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "sentiment",
				Name:      "duration_seconds",
				Help:      "Duration of the LLM sentiment stage in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		AggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "aggregation",
				Name:      "duration_seconds",
				Help:      "Duration of sentiment aggregation in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		AggregationImpactCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "aggregation",
				Name:      "impact_total",
				Help:      "Total number of aggregations by impact label",
			},
			[]string{"impact"},
		),

		LevelDetectionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "levels",
				Name:      "duration_seconds",
				Help:      "Duration of support/resistance detection in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		LevelDetectionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "levels",
				Name:      "errors_total",
				Help:      "Total number of level detection errors",
			},
			[]string{"symbol", "error_type"},
		),
		LevelsDetectedHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "levels",
				Name:      "count",
				Help:      "Number of levels returned per detection",
				Buckets:   countBuckets,
			},
			[]string{"symbol", "type"},
		),
		LevelCacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "levels",
				Name:      "cache_hits_total",
				Help:      "Total number of result-cache hits in the level detection agent",
			},
			[]string{"symbol"},
		),
		LevelCacheMissTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "levels",
				Name:      "cache_misses_total",
				Help:      "Total number of result-cache misses in the level detection agent",
			},
			[]string{"symbol"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tickerpulse",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tickerpulse",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tickerpulse",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordNewsFetchRequest records a news fetch pipeline invocation
func (m *Metrics) RecordNewsFetchRequest(symbol string) {
	m.NewsFetchRequestsTotal.WithLabelValues(symbol).Inc()
}

// RecordNewsFetchError records a news fetch pipeline error
func (m *Metrics) RecordNewsFetchError(symbol, errorType string) {
	m.NewsFetchErrorsTotal.WithLabelValues(symbol, errorType).Inc()
}

// RecordArticlesFetched records the number of articles returned
func (m *Metrics) RecordArticlesFetched(symbol string, count int) {
	m.NewsArticlesFetched.WithLabelValues(symbol).Observe(float64(count))
}

// RecordWindowExpansion records a dynamic window expansion
func (m *Metrics) RecordWindowExpansion(symbol string) {
	m.NewsWindowExpansions.WithLabelValues(symbol).Inc()
}

// RecordCollectorRequest records a collector call
func (m *Metrics) RecordCollectorRequest(source string) {
	m.CollectorRequestsTotal.WithLabelValues(source).Inc()
}

// RecordCollectorError records a collector error
func (m *Metrics) RecordCollectorError(source, errorType string) {
	m.CollectorErrorsTotal.WithLabelValues(source, errorType).Inc()
}

// RecordCollectorRateLimited records a local rate-limit rejection
func (m *Metrics) RecordCollectorRateLimited(source string) {
	m.CollectorRateLimited.WithLabelValues(source).Inc()
}

// RecordSentimentCall records a paid LLM sentiment call
func (m *Metrics) RecordSentimentCall(provider string) {
	m.SentimentCallsTotal.WithLabelValues(provider).Inc()
}

// RecordCacheHit records a semantic cache hit
func (m *Metrics) RecordCacheHit(symbol string) {
	m.SentimentCacheHitsTotal.WithLabelValues(symbol).Inc()
}

// RecordCacheMiss records a semantic cache miss
func (m *Metrics) RecordCacheMiss(symbol string) {
	m.SentimentCacheMissTotal.WithLabelValues(symbol).Inc()
}

// RecordSentimentScore records a per-article sentiment score
func (m *Metrics) RecordSentimentScore(symbol string, score float64) {
	m.SentimentScoreHistogram.WithLabelValues(symbol).Observe(score)
}

// RecordAggregationImpact records an aggregation outcome by impact label
func (m *Metrics) RecordAggregationImpact(impact string) {
	m.AggregationImpactCounter.WithLabelValues(impact).Inc()
}

// RecordLevelDetectionError records a level detection error
func (m *Metrics) RecordLevelDetectionError(symbol, errorType string) {
	m.LevelDetectionErrors.WithLabelValues(symbol, errorType).Inc()
}

// RecordLevelsDetected records the number of levels returned by type
func (m *Metrics) RecordLevelsDetected(symbol, levelType string, count int) {
	m.LevelsDetectedHistogram.WithLabelValues(symbol, levelType).Observe(float64(count))
}

// RecordLevelCacheHit records a result-cache hit in the level agent
func (m *Metrics) RecordLevelCacheHit(symbol string) {
	m.LevelCacheHitsTotal.WithLabelValues(symbol).Inc()
}

// RecordLevelCacheMiss records a result-cache miss in the level agent
func (m *Metrics) RecordLevelCacheMiss(symbol string) {
	m.LevelCacheMissTotal.WithLabelValues(symbol).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveNewsFetch records the news fetch duration and status
func (t *Timer) ObserveNewsFetch(symbol, status string) {
	t.metrics.NewsFetchDuration.WithLabelValues(symbol, status).Observe(time.Since(t.start).Seconds())
}

// ObserveCollector records a collector call duration
func (t *Timer) ObserveCollector(source string) {
	t.metrics.CollectorDuration.WithLabelValues(source).Observe(time.Since(t.start).Seconds())
}

// ObserveSentiment records the sentiment stage duration and status
func (t *Timer) ObserveSentiment(symbol, status string) {
	t.metrics.SentimentDuration.WithLabelValues(symbol, status).Observe(time.Since(t.start).Seconds())
}

// ObserveAggregation records the aggregation stage duration and status
func (t *Timer) ObserveAggregation(symbol, status string) {
	t.metrics.AggregationDuration.WithLabelValues(symbol, status).Observe(time.Since(t.start).Seconds())
}

// ObserveLevelDetection records the level detection duration and status
func (t *Timer) ObserveLevelDetection(symbol, status string) {
	t.metrics.LevelDetectionDuration.WithLabelValues(symbol, status).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
