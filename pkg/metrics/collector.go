package metrics

import "time"

// StatsProvider is anything a Collector can poll for point-in-time gauge
// values. pkg/pool's ThreadPool satisfies this by reporting its configured
// shard count and how many shard jobs are currently in flight.
type StatsProvider interface {
	Stats() Stats
}

// Stats is one snapshot of a StatsProvider's state.
type Stats struct {
	ShardCount   int
	ActiveShards int
}

// Collector periodically samples a StatsProvider into the package's
// gauges, for long-running processes (the bench CLI's serve mode) that want
// metrics scraped on an interval rather than pushed from inside a run.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector sampling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval, stopCh: make(chan struct{})}
}

// Start begins sampling in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.sample()
		for {
			select {
			case <-ticker.C:
				c.sample()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts sampling.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) sample() {
	stats := c.provider.Stats()
	ShardCount.Set(float64(stats.ShardCount))
}
