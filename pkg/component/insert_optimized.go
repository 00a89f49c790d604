package component

import (
	"sort"

	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
	"github.com/cuemby/loom/pkg/handle"
	"github.com/cuemby/loom/pkg/index"
)

// InsertOptimized is the InsertOptimized ComponentCollection strategy: like
// Mutable, but tuned for workloads that bind many new entities between runs
// rather than within one. New entities land in a small unsorted overflow
// buffer at O(1) cost via InsertBetweenTicks, instead of going through the
// main sorted vector immediately. A scan merges the overflow into the main
// sequence on the fly, so per-element scan cost is higher than Mutable's flat
// array walk; apply folds the overflow back into the main vector, so the
// overflow never grows across more than one tick.
type InsertOptimized[E entity.ID[E], T any] struct {
	brand    *change.Brand
	idx      index.Map[E]
	entities []E
	values   []T
	overflow map[E]T
}

// NewInsertOptimized constructs an empty InsertOptimized collection backed
// by a hash EntityMap, favoring point-write throughput over scan cost.
func NewInsertOptimized[E entity.ID[E], T any]() *InsertOptimized[E, T] {
	return NewInsertOptimizedWithIndex[E, T](index.NewHashMap[E]())
}

// NewInsertOptimizedWithIndex constructs an empty InsertOptimized collection
// backed by the given EntityMap implementation.
func NewInsertOptimizedWithIndex[E entity.ID[E], T any](idx index.Map[E]) *InsertOptimized[E, T] {
	return &InsertOptimized[E, T]{brand: change.NewBrand(), idx: idx, overflow: make(map[E]T)}
}

// InsertOptimizedFromIter constructs an InsertOptimized collection from an
// initial set of (entity, value) pairs, with an empty overflow buffer.
func InsertOptimizedFromIter[E entity.ID[E], T any](pairs []Pair[E, T]) *InsertOptimized[E, T] {
	c := NewInsertOptimized[E, T]()
	c.load(pairs)
	return c
}

func (c *InsertOptimized[E, T]) load(pairs []Pair[E, T]) {
	sorted := append([]Pair[E, T](nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return entity.Less(sorted[i].Entity, sorted[j].Entity) })
	c.entities = make([]E, len(sorted))
	c.values = make([]T, len(sorted))
	for i, p := range sorted {
		c.entities[i] = p.Entity
		c.values[i] = p.Value
		c.idx.Insert(p.Entity, i)
	}
}

// Brand identifies this collection instance for batch-origin checks.
func (c *InsertOptimized[E, T]) Brand() *change.Brand { return c.brand }

// Len reports the total number of present entities, main plus overflow.
func (c *InsertOptimized[E, T]) Len() int {
	n := len(c.entities) + len(c.overflow)
	for e := range c.overflow {
		if _, ok := c.idx.Lookup(e); ok {
			n--
		}
	}
	return n
}

// InsertBetweenTicks binds a new entity directly into the overflow buffer,
// outside of any system run. It is the cheap single-item insert path this
// strategy exists for; it must not be called while a run is in flight
// against this collection.
func (c *InsertOptimized[E, T]) InsertBetweenTicks(e E, v T) {
	c.overflow[e] = v
}

// Get returns a read-only snapshot of e's current value, checking the
// overflow buffer first since it holds the most recently inserted entities.
func (c *InsertOptimized[E, T]) Get(e E) (handle.ReadOnly[T], bool) {
	if v, ok := c.overflow[e]; ok {
		return handle.NewReadOnly(v), true
	}
	pos, ok := c.idx.Lookup(e)
	if !ok {
		return handle.ReadOnly[T]{}, false
	}
	return handle.NewReadOnly(c.values[pos]), true
}

// Scan merges the overflow buffer into the main sequence and returns every
// (entity, value) pair in ascending entity order. This merge is the extra
// per-element cost this strategy trades for cheap inter-tick inserts.
func (c *InsertOptimized[E, T]) Scan() []Pair[E, T] {
	if len(c.overflow) == 0 {
		out := make([]Pair[E, T], len(c.entities))
		for i, e := range c.entities {
			out[i] = Pair[E, T]{Entity: e, Value: c.values[i]}
		}
		return out
	}

	extra := make([]Pair[E, T], 0, len(c.overflow))
	for e, v := range c.overflow {
		extra = append(extra, Pair[E, T]{Entity: e, Value: v})
	}
	sort.Slice(extra, func(i, j int) bool { return entity.Less(extra[i].Entity, extra[j].Entity) })

	out := make([]Pair[E, T], 0, len(c.entities)+len(extra))
	i, j := 0, 0
	for i < len(c.entities) && j < len(extra) {
		if entity.Less(c.entities[i], extra[j].Entity) {
			out = append(out, Pair[E, T]{Entity: c.entities[i], Value: c.values[i]})
			i++
		} else {
			if !entity.Less(extra[j].Entity, c.entities[i]) {
				i++ // the overflow value replaces the main-vector value for the same entity
			}
			out = append(out, extra[j])
			j++
		}
	}
	for ; i < len(c.entities); i++ {
		out = append(out, Pair[E, T]{Entity: c.entities[i], Value: c.values[i]})
	}
	for ; j < len(extra); j++ {
		out = append(out, extra[j])
	}
	return out
}

// Apply merges the sparse overflow index into the main vector alongside the
// batch's own binds, replaces, and unbinds — a single rebuild pass that
// leaves the overflow buffer empty afterward.
func (c *InsertOptimized[E, T]) Apply(batch *change.Batch[E, T]) error {
	if batch != nil && batch.Brand() != c.brand {
		return errs.ErrMismatchedBatch
	}

	merged := c.Scan()
	byEntity := make(map[E]T, len(merged))
	for _, p := range merged {
		byEntity[p.Entity] = p.Value
	}
	if batch != nil {
		for _, r := range batch.Records() {
			switch r.Kind {
			case change.Bind, change.Replace:
				byEntity[r.Entity] = r.Value
			case change.Unbind:
				delete(byEntity, r.Entity)
			}
		}
	}

	pairs := make([]Pair[E, T], 0, len(byEntity))
	for e, v := range byEntity {
		pairs = append(pairs, Pair[E, T]{Entity: e, Value: v})
	}
	c.idx = newLikeIndex(c.idx)
	c.overflow = make(map[E]T)
	c.load(pairs)
	return nil
}

// Partition splits this collection into shards under scheme, folding the
// overflow buffer into the scan first.
func (c *InsertOptimized[E, T]) Partition(scheme PartitioningScheme[E]) *PartitionedInsertOptimized[E, T] {
	buckets := bucketize(scheme, c.Scan())
	shards := make([]*InsertOptimized[E, T], len(buckets))
	for i, b := range buckets {
		shards[i] = InsertOptimizedFromIter[E, T](b)
	}
	return &PartitionedInsertOptimized[E, T]{brand: change.NewBrand(), scheme: scheme, shards: shards}
}

// Begin starts one system run against this collection. The run works on a
// merged copy of the main vector and the overflow buffer; the overflow buffer
// keeps its entries until Finish's batch is applied. Edits made through
// ValueMut land in that copy and are written back into the collection when
// the run finishes, so Get does not see them while the run is in flight.
func (c *InsertOptimized[E, T]) Begin() Run[E, *handle.Mutable[E, T]] {
	merged := c.Scan()
	entities := make([]E, len(merged))
	values := make([]T, len(merged))
	idx := index.NewHashMap[E]()
	for i, p := range merged {
		entities[i] = p.Entity
		values[i] = p.Value
		idx.Insert(p.Entity, i)
	}
	return &insertOptimizedRun[E, T]{coll: c, batch: change.NewBatch[E, T](c.brand), entities: entities, values: values, idx: idx}
}

type insertOptimizedRun[E entity.ID[E], T any] struct {
	coll     *InsertOptimized[E, T]
	batch    *change.Batch[E, T]
	entities []E
	values   []T
	idx      index.Map[E]
}

func (r *insertOptimizedRun[E, T]) NewCursor() Cursor[E, *handle.Mutable[E, T]] {
	return &insertOptimizedCursor[E, T]{run: r, pos: 0}
}

func (r *insertOptimizedRun[E, T]) Lookup(e E) (*handle.Mutable[E, T], bool) {
	pos, ok := r.idx.Lookup(e)
	if !ok {
		return nil, false
	}
	return handle.NewMutable(e, &r.values[pos], r.batch), true
}

// Finish writes the run's values back into the collection, into the overflow
// buffer or the main vector wherever each entity lives, so in-place edits
// persist as they do for Mutable; the batch itself is applied separately.
func (r *insertOptimizedRun[E, T]) Finish() Finished[E] {
	for i, e := range r.entities {
		if _, ok := r.coll.overflow[e]; ok {
			r.coll.overflow[e] = r.values[i]
		} else if pos, ok := r.coll.idx.Lookup(e); ok {
			r.coll.values[pos] = r.values[i]
		}
	}
	return finishedBatch[E, T]{batch: r.batch, apply: r.coll.Apply}
}

type insertOptimizedCursor[E entity.ID[E], T any] struct {
	run *insertOptimizedRun[E, T]
	pos int
}

func (c *insertOptimizedCursor[E, T]) Entity() (E, bool) {
	if c.pos >= len(c.run.entities) {
		var zero E
		return zero, false
	}
	return c.run.entities[c.pos], true
}

func (c *insertOptimizedCursor[E, T]) Handle() *handle.Mutable[E, T] {
	return handle.NewMutable(c.run.entities[c.pos], &c.run.values[c.pos], c.run.batch)
}

func (c *insertOptimizedCursor[E, T]) Advance() { c.pos++ }

// PartitionedInsertOptimized is an InsertOptimized collection fragmented
// into shards.
type PartitionedInsertOptimized[E entity.ID[E], T any] struct {
	brand  *change.Brand
	scheme PartitioningScheme[E]
	shards []*InsertOptimized[E, T]
}

func (p *PartitionedInsertOptimized[E, T]) Brand() *change.Brand          { return p.brand }
func (p *PartitionedInsertOptimized[E, T]) Scheme() PartitioningScheme[E] { return p.scheme }
func (p *PartitionedInsertOptimized[E, T]) ShardCount() int               { return len(p.shards) }
func (p *PartitionedInsertOptimized[E, T]) Shard(i int) *InsertOptimized[E, T] {
	return p.shards[i]
}

// ShardSource returns shard i as a Source, satisfying PartitionedSource.
func (p *PartitionedInsertOptimized[E, T]) ShardSource(i int) Source[E, *handle.Mutable[E, T]] {
	return p.shards[i]
}

// ApplyFinished rebuilds a typed batch from a merged, type-erased result and
// applies it, satisfying PartitionedSource.
func (p *PartitionedInsertOptimized[E, T]) ApplyFinished(f Finished[E]) error {
	return p.Apply(batchFromFinished[E, T](p.brand, f))
}

// Apply routes each record in batch to its owning shard and applies it there.
func (p *PartitionedInsertOptimized[E, T]) Apply(batch *change.Batch[E, T]) error {
	if batch == nil || batch.IsEmpty() {
		return nil
	}
	if batch.Brand() != p.brand {
		return errs.ErrMismatchedBatch
	}
	perShard := make([]*change.Batch[E, T], len(p.shards))
	for i, s := range p.shards {
		perShard[i] = change.NewBatch[E, T](s.Brand())
	}
	for _, r := range batch.Records() {
		s := p.scheme.PartitionOf(r.Entity)
		switch r.Kind {
		case change.Bind:
			perShard[s].Bind(r.Entity, r.Value)
		case change.Replace:
			perShard[s].Replace(r.Entity, r.Value)
		case change.Unbind:
			perShard[s].Unbind(r.Entity)
		}
	}
	for i, s := range p.shards {
		if err := s.Apply(perShard[i]); err != nil {
			return err
		}
	}
	return nil
}
