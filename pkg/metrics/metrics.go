package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics for the collection pipeline
type Collector struct {
	// Collection cycle metrics
	CyclesTotal          *prometheus.CounterVec
	CycleDuration        prometheus.Histogram
	ReadingsWrittenTotal prometheus.Counter
	StationsSkippedTotal *prometheus.CounterVec

	// Feed metrics
	FeedRequestDuration prometheus.Histogram
	FeedErrorsTotal     *prometheus.CounterVec
	FeedStationsFetched prometheus.Gauge

	// Discovery metrics
	DiscoveryRunsTotal     prometheus.Counter
	DiscoveryStationsFound prometheus.Gauge

	// Database metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	return &Collector{
		CyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collection_cycles_total",
				Help:      "Total number of collection cycles by outcome",
			},
			[]string{"outcome"},
		),

		CycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "collection_cycle_duration_seconds",
				Help:      "Duration of a full collection cycle in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		ReadingsWrittenTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "readings_written_total",
				Help:      "Total number of availability readings written",
			},
		),

		StationsSkippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stations_skipped_total",
				Help:      "Monitored stations skipped during a cycle by reason",
			},
			[]string{"reason"}, // "absent", "not_installed", "locked"
		),

		FeedRequestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feed_request_duration_seconds",
				Help:      "Duration of upstream feed requests in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		FeedErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_errors_total",
				Help:      "Total number of upstream feed errors by type",
			},
			[]string{"error_type"}, // "request", "status", "decode"
		),

		FeedStationsFetched: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feed_stations_fetched",
				Help:      "Number of stations returned by the last catalog fetch",
			},
		),

		DiscoveryRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_runs_total",
				Help:      "Total number of station discovery runs",
			},
		),

		DiscoveryStationsFound: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discovery_stations_found",
				Help:      "Number of stations inside the radius on the last discovery run",
			},
		),

		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordCycle increments the cycle counter for an outcome
func (c *Collector) RecordCycle(outcome string) {
	c.CyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordStationSkipped increments the skip counter for a reason
func (c *Collector) RecordStationSkipped(reason string) {
	c.StationsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordFeedError increments the feed error counter
func (c *Collector) RecordFeedError(errorType string) {
	c.FeedErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordDBError increments the database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}
