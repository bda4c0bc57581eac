// Package metrics exposes the search service's Prometheus instrumentation:
// cache hit/miss rates, refresh counts and durations, adapter outcomes and
// latency, and job queue depth.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Total number of Result Cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Total number of Result Cache misses",
	})

	cacheLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_cache_load_duration_seconds",
		Help:    "Time taken to read the Result Cache",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	storeQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_store_query_duration_seconds",
		Help:    "Time taken to read the Durable Price Store",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	adapterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_adapter_duration_seconds",
		Help:    "Time taken by a source adapter to complete one scrape",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	adapterOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_adapter_outcomes_total",
		Help: "Source adapter outcomes by source and result",
	}, []string{"source", "outcome"}) // outcome: success, error, panic

	refreshesLaunched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_refreshes_launched_total",
		Help: "Total number of background refreshes launched",
	})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_refresh_duration_seconds",
		Help:    "Time taken for a full background refresh across all sources",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	jobQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_active_jobs",
		Help: "Number of pending or running scrape jobs",
	})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "search_circuit_breaker_state",
		Help: "Circuit breaker state by dependency (0=closed, 1=open, 2=half-open)",
	}, []string{"dependency"})
)

// Recorder provides methods to record search-service metrics; it holds no
// state of its own, the vectors above are package-level like the
// teacher's own optimizer metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordCacheHit records a Result Cache hit.
func (r *Recorder) RecordCacheHit() { cacheHits.Inc() }

// RecordCacheMiss records a Result Cache miss.
func (r *Recorder) RecordCacheMiss() { cacheMisses.Inc() }

// RecordCacheLoad records the duration of a Result Cache read.
func (r *Recorder) RecordCacheLoad(d time.Duration) { cacheLoadDuration.Observe(d.Seconds()) }

// RecordStoreQuery records the duration of a Durable Price Store read.
func (r *Recorder) RecordStoreQuery(d time.Duration) { storeQueryDuration.Observe(d.Seconds()) }

// RecordAdapterRun records one source adapter's outcome and duration.
func (r *Recorder) RecordAdapterRun(source, outcome string, d time.Duration) {
	adapterDuration.WithLabelValues(source).Observe(d.Seconds())
	adapterOutcomes.WithLabelValues(source, outcome).Inc()
}

// RecordRefresh records a completed background refresh.
func (r *Recorder) RecordRefresh(d time.Duration) {
	refreshesLaunched.Inc()
	refreshDuration.Observe(d.Seconds())
}

// SetJobQueueDepth sets the current count of pending/running jobs.
func (r *Recorder) SetJobQueueDepth(n int) { jobQueueDepth.Set(float64(n)) }

// SetCircuitState records a circuit breaker's numeric state for a
// dependency name.
func (r *Recorder) SetCircuitState(dependency string, state int) {
	circuitState.WithLabelValues(dependency).Set(float64(state))
}
