package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewTimerStartsImmediately(t *testing.T) {
	timer := NewTimer()
	assert.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.Less(t, time.Since(timer.start), time.Second)
}

func TestTimerDurationGrowsMonotonically(t *testing.T) {
	timer := NewTimer()

	var last time.Duration
	for i := 0; i < 3; i++ {
		time.Sleep(10 * time.Millisecond)
		d := timer.Duration()
		assert.Greater(t, d, last)
		last = d
	}
}

func TestTimerDurationAtLeastSleepElapsed(t *testing.T) {
	timer := NewTimer()
	const sleep = 50 * time.Millisecond
	time.Sleep(sleep)

	d := timer.Duration()
	assert.GreaterOrEqual(t, d, sleep)
}

func TestTimerObserveDurationDoesNotPanic(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "loom_test_timer_duration_seconds",
		Help:    "scratch histogram for TestTimerObserveDurationDoesNotPanic",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	assert.NotPanics(t, func() { timer.ObserveDuration(histogram) })
}

func TestTimerObserveDurationVecDoesNotPanic(t *testing.T) {
	histogramVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loom_test_timer_duration_vec_seconds",
			Help:    "scratch histogram vec for TestTimerObserveDurationVecDoesNotPanic",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	timer := NewTimer()
	assert.NotPanics(t, func() { timer.ObserveDurationVec(histogramVec, "sequential") })
}

func TestMultipleTimersRunIndependently(t *testing.T) {
	earlier := NewTimer()
	time.Sleep(20 * time.Millisecond)
	later := NewTimer()

	assert.Greater(t, earlier.Duration(), later.Duration())
}
