package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts completed system runs by mode (sequential/subset/
	// parallel) and outcome (ok/error).
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loom_runs_total",
			Help: "Total number of system runs by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// RunDuration measures wall-clock time for one system run: for sequential
	// and subset runs from Begin through the last Apply, for parallel runs
	// from dispatch through Waiter.Wait (the apply is not included).
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loom_run_duration_seconds",
			Help:    "System run duration in seconds by mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// JoinMatchedEntities counts entities for which a join's handler fired,
	// i.e. entities present in every joined source.
	JoinMatchedEntities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loom_join_matched_entities_total",
			Help: "Total number of entities a join invoked its handler for",
		},
		[]string{"arity"},
	)

	// BatchSize observes how many records a Finished batch carried, per
	// collection, at apply time.
	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loom_batch_size",
			Help:    "Number of staged records in a change batch at apply time",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)

	// ShardCount reports the shard count of the last parallel run; a running
	// Collector also sets it to its StatsProvider's ShardCount on each sample.
	ShardCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loom_shard_count",
			Help: "Number of shards the last parallel run dispatched, or the sampled pool's shard count",
		},
	)

	// WaiterWaitDuration measures how long a parallel run's Waiter blocked
	// before every shard finished.
	WaiterWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loom_waiter_wait_duration_seconds",
			Help:    "Time a Waiter blocked waiting on shard completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ShardFailuresTotal counts shard jobs that returned an error.
	ShardFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loom_shard_failures_total",
			Help: "Total number of shard jobs that failed in a parallel run",
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(JoinMatchedEntities)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(ShardCount)
	prometheus.MustRegister(WaiterWaitDuration)
	prometheus.MustRegister(ShardFailuresTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a labeled histogram vec.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
