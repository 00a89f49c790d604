// Package system implements the system contract and builder: System2/System3
// run a handler over a sorted-merge join against sequential sources and
// apply whatever each side staged; SystemParallel2/SystemParallel3 run the
// same join sharded across a bounded worker pool and, on any shard's
// failure, discard every shard's staged batch rather than apply a partial
// result.
package system

import (
	"github.com/cuemby/loom/pkg/component"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
	"github.com/cuemby/loom/pkg/join"
	"github.com/cuemby/loom/pkg/log"
	"github.com/cuemby/loom/pkg/metrics"
	"github.com/cuemby/loom/pkg/pool"
)

// System2 runs handler over the inner join of src1 and src2, then applies
// both sides' staged batches regardless of whether handler returned an
// error partway through — a sequential run has no concurrent shard to race
// against, so whatever was staged before a failure is committed, not rolled
// back. The handler's error, if any, is returned after both applies are
// attempted; an apply error takes its place only if the handler itself
// succeeded.
func System2[E entity.ID[E], H1, H2 any](
	src1 component.Source[E, H1],
	src2 component.Source[E, H2],
	handler func(e E, h1 H1, h2 H2) error,
) error {
	timer := metrics.NewTimer()
	f1, f2, runErr := join.Join2(src1, src2, wrapHandler2(handler))
	observeBatches(f1, f2)
	applyErr := firstErr(f1.Apply(), f2.Apply())
	finishRun("sequential", timer, runErr)
	if runErr != nil {
		return runErr
	}
	return applyErr
}

// System3 is System2 for a three-way join.
func System3[E entity.ID[E], H1, H2, H3 any](
	src1 component.Source[E, H1],
	src2 component.Source[E, H2],
	src3 component.Source[E, H3],
	handler func(e E, h1 H1, h2 H2, h3 H3) error,
) error {
	timer := metrics.NewTimer()
	f1, f2, f3, runErr := join.Join3(src1, src2, src3, wrapHandler3(handler))
	observeBatches(f1, f2, f3)
	applyErr := firstErr(f1.Apply(), f2.Apply(), f3.Apply())
	finishRun("sequential", timer, runErr)
	if runErr != nil {
		return runErr
	}
	return applyErr
}

// SystemSubset runs handler over the entities in subset that are present in
// src, by direct lookup in caller-supplied order, then applies the staged
// batch.
func SystemSubset[E entity.ID[E], H any](
	src component.Source[E, H],
	subset []E,
	handler func(e E, h H) error,
) error {
	timer := metrics.NewTimer()
	f, runErr := join.RunSubset(src, subset, handler)
	observeBatches(f)
	applyErr := f.Apply()
	finishRun("subset", timer, runErr)
	if runErr != nil {
		return runErr
	}
	return applyErr
}

// SystemParallel2 runs handler once per shard via tp, joining shard i of
// p1 against shard i of p2 for every shard. If any shard fails, every
// shard's staged batch is discarded — no bind, replace or unbind is applied —
// and the first observed shard failure is returned. In-place edits made
// through Mutable handles are already in the shards' storage and stay there.
func SystemParallel2[E entity.ID[E], H1, H2 any](
	tp *pool.ThreadPool,
	p1 component.PartitionedSource[E, H1],
	p2 component.PartitionedSource[E, H2],
	handler func(e E, h1 H1, h2 H2) error,
) error {
	n := p1.ShardCount()
	if p2.ShardCount() != n {
		return errs.ErrSchemeMismatch
	}
	timer := metrics.NewTimer()
	results1 := make([]component.Finished[E], n)
	results2 := make([]component.Finished[E], n)

	waiter := tp.Dispatch(n, func(shard int) error {
		f1, f2, err := join.Join2(p1.ShardSource(shard), p2.ShardSource(shard), wrapHandler2(handler))
		results1[shard], results2[shard] = f1, f2
		return err
	})
	runErr := waiter.Wait()
	finishRun("parallel", timer, runErr)
	metrics.ShardCount.Set(float64(n))
	if runErr != nil {
		log.WithComponent("system").Warn().Err(runErr).Msg("parallel run failed, discarding all shards")
		return runErr
	}

	merged1 := component.MergeFinished(results1...)
	merged2 := component.MergeFinished(results2...)
	observeBatches(merged1, merged2)
	return firstErr(
		p1.ApplyFinished(merged1),
		p2.ApplyFinished(merged2),
	)
}

// SystemParallel3 is SystemParallel2 for a three-way join.
func SystemParallel3[E entity.ID[E], H1, H2, H3 any](
	tp *pool.ThreadPool,
	p1 component.PartitionedSource[E, H1],
	p2 component.PartitionedSource[E, H2],
	p3 component.PartitionedSource[E, H3],
	handler func(e E, h1 H1, h2 H2, h3 H3) error,
) error {
	n := p1.ShardCount()
	if p2.ShardCount() != n || p3.ShardCount() != n {
		return errs.ErrSchemeMismatch
	}
	timer := metrics.NewTimer()
	results1 := make([]component.Finished[E], n)
	results2 := make([]component.Finished[E], n)
	results3 := make([]component.Finished[E], n)

	waiter := tp.Dispatch(n, func(shard int) error {
		f1, f2, f3, err := join.Join3(p1.ShardSource(shard), p2.ShardSource(shard), p3.ShardSource(shard), wrapHandler3(handler))
		results1[shard], results2[shard], results3[shard] = f1, f2, f3
		return err
	})
	runErr := waiter.Wait()
	finishRun("parallel", timer, runErr)
	metrics.ShardCount.Set(float64(n))
	if runErr != nil {
		log.WithComponent("system").Warn().Err(runErr).Msg("parallel run failed, discarding all shards")
		return runErr
	}

	merged1 := component.MergeFinished(results1...)
	merged2 := component.MergeFinished(results2...)
	merged3 := component.MergeFinished(results3...)
	observeBatches(merged1, merged2, merged3)
	return firstErr(
		p1.ApplyFinished(merged1),
		p2.ApplyFinished(merged2),
		p3.ApplyFinished(merged3),
	)
}

// wrapHandler2 counts each invocation as one matched entity before
// delegating to handler, so System2/SystemParallel2 need no separate
// counting pass over the join's result.
func wrapHandler2[E entity.ID[E], H1, H2 any](handler func(e E, h1 H1, h2 H2) error) func(E, H1, H2) error {
	return func(e E, h1 H1, h2 H2) error {
		metrics.JoinMatchedEntities.WithLabelValues("2").Inc()
		return handler(e, h1, h2)
	}
}

// wrapHandler3 is wrapHandler2 for a three-way join.
func wrapHandler3[E entity.ID[E], H1, H2, H3 any](handler func(e E, h1 H1, h2 H2, h3 H3) error) func(E, H1, H2, H3) error {
	return func(e E, h1 H1, h2 H2, h3 H3) error {
		metrics.JoinMatchedEntities.WithLabelValues("3").Inc()
		return handler(e, h1, h2, h3)
	}
}

// observeBatches records each Finished result's staged record count, for the
// loom_batch_size histogram.
func observeBatches[E entity.ID[E]](fs ...component.Finished[E]) {
	for _, f := range fs {
		if f != nil {
			metrics.BatchSize.Observe(float64(f.Len()))
		}
	}
}

func firstErr(candidates ...error) error {
	for _, err := range candidates {
		if err != nil {
			return err
		}
	}
	return nil
}

func finishRun(mode string, timer *metrics.Timer, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RunsTotal.WithLabelValues(mode, outcome).Inc()
	timer.ObserveDurationVec(metrics.RunDuration, mode)
}
