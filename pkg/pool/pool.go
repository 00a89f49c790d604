// Package pool implements the bounded, fixed-size worker pool the parallel
// runner dispatches per-shard joins onto, and the Waiter handle callers use
// to block until every shard has finished.
package pool

import (
	"sync/atomic"
	"time"

	"github.com/cuemby/loom/pkg/errs"
	"github.com/cuemby/loom/pkg/log"
	"github.com/cuemby/loom/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ThreadPool is a fixed-size worker pool: at most Limit shard jobs run
// concurrently, regardless of how many shards are dispatched in one call.
type ThreadPool struct {
	limit  int
	active atomic.Int64
}

// New constructs a ThreadPool that runs at most limit shard jobs at once.
// limit must be at least 1.
func New(limit int) *ThreadPool {
	if limit < 1 {
		limit = 1
	}
	return &ThreadPool{limit: limit}
}

// Limit returns the pool's configured concurrency bound.
func (p *ThreadPool) Limit() int { return p.limit }

// Stats reports the pool's current shard activity, for metrics.Collector.
func (p *ThreadPool) Stats() metrics.Stats {
	return metrics.Stats{ShardCount: p.limit, ActiveShards: int(p.active.Load())}
}

// Dispatch runs job once per shard in [0, n), bounded by the pool's limit,
// and returns immediately with a Waiter the caller blocks on. job's error,
// if any, is wrapped in errs.ShardError before being surfaced; per the
// first-shard-failure-wins policy, the errgroup keeps only the first error
// returned and lets the remaining shards run to completion — later failures
// are still recorded via ShardFailuresTotal but not returned.
func (p *ThreadPool) Dispatch(n int, job func(shard int) error) *Waiter {
	g := &errgroup.Group{}
	g.SetLimit(p.limit)
	done := make(chan error, 1)
	started := time.Now()

	go func() {
		for i := 0; i < n; i++ {
			shard := i
			g.Go(func() error {
				p.active.Add(1)
				defer p.active.Add(-1)
				if err := job(shard); err != nil {
					metrics.ShardFailuresTotal.Inc()
					log.WithShard(shard).Error().Err(err).Msg("shard failed")
					return &errs.ShardError{Shard: shard, Err: err}
				}
				return nil
			})
		}
		done <- g.Wait()
	}()

	return &Waiter{done: done, shardCount: n, started: started}
}

// Waiter is the handle a Dispatch call returns: its Wait method blocks until
// every dispatched shard has finished, including after a shard has failed.
type Waiter struct {
	done       chan error
	shardCount int
	started    time.Time
}

// Wait blocks until all shards complete, returning the first shard's error
// if any failed, wrapped as errs.ShardError.
func (w *Waiter) Wait() error {
	err := <-w.done
	metrics.WaiterWaitDuration.Observe(time.Since(w.started).Seconds())
	return err
}

// ShardCount reports how many shards this Waiter is waiting on.
func (w *Waiter) ShardCount() int { return w.shardCount }
