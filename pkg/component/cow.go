package component

import (
	"sort"

	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
	"github.com/cuemby/loom/pkg/handle"
	"github.com/cuemby/loom/pkg/index"
)

// CopyOnWrite is the CopyOnWrite ComponentCollection strategy. Reads are
// shared immutable views of the value stored at scan time; writes made
// through a handler's handle.CopyOnWrite are staged as change records and
// only take effect when the returned batch is applied, which rebuilds
// storage from scratch in sorted order.
type CopyOnWrite[E entity.ID[E], T any] struct {
	brand    *change.Brand
	idx      index.Map[E]
	entities []E
	values   []T
}

// NewCopyOnWrite constructs an empty CopyOnWrite collection backed by a
// hash EntityMap.
func NewCopyOnWrite[E entity.ID[E], T any]() *CopyOnWrite[E, T] {
	return NewCopyOnWriteWithIndex[E, T](index.NewHashMap[E]())
}

// NewCopyOnWriteWithIndex constructs an empty CopyOnWrite collection backed
// by the given EntityMap implementation, per the specification's requirement
// that every collection be parametric over the map implementation.
func NewCopyOnWriteWithIndex[E entity.ID[E], T any](idx index.Map[E]) *CopyOnWrite[E, T] {
	return &CopyOnWrite[E, T]{brand: change.NewBrand(), idx: idx}
}

// CopyOnWriteFromIter constructs a CopyOnWrite collection from an initial
// set of (entity, value) pairs, sorting them once up front.
func CopyOnWriteFromIter[E entity.ID[E], T any](pairs []Pair[E, T]) *CopyOnWrite[E, T] {
	c := NewCopyOnWrite[E, T]()
	c.load(pairs)
	return c
}

func (c *CopyOnWrite[E, T]) load(pairs []Pair[E, T]) {
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
func (c *CopyOnWrite[E, T]) Brand() *change.Brand { return c.brand }

// Len reports the number of present entities.
func (c *CopyOnWrite[E, T]) Len() int { return len(c.entities) }

// Get returns a read-only snapshot of e's value, if present. Mutation is
// only available inside a system run, where handles are bound to that run's
// batch; ad hoc Get is always a read.
func (c *CopyOnWrite[E, T]) Get(e E) (handle.ReadOnly[T], bool) {
	pos, ok := c.idx.Lookup(e)
	if !ok {
		return handle.ReadOnly[T]{}, false
	}
	return handle.NewReadOnly(c.values[pos]), true
}

// Scan returns every (entity, value) pair in ascending entity order.
func (c *CopyOnWrite[E, T]) Scan() []Pair[E, T] {
	out := make([]Pair[E, T], len(c.entities))
	for i, e := range c.entities {
		out[i] = Pair[E, T]{Entity: e, Value: c.values[i]}
	}
	return out
}

// Apply rebuilds storage from the given batch: replaces overwrite in place,
// unbinds remove, and binds insert, with the whole collection re-sorted
// afterward. Returns errs.ErrMismatchedBatch if batch wasn't produced by
// this collection.
func (c *CopyOnWrite[E, T]) Apply(batch *change.Batch[E, T]) error {
	if batch == nil || batch.IsEmpty() {
		return nil
	}
	if batch.Brand() != c.brand {
		return errs.ErrMismatchedBatch
	}

	byEntity := make(map[E]T, len(c.entities))
	for i, e := range c.entities {
		byEntity[e] = c.values[i]
	}
	for _, r := range batch.Records() {
		switch r.Kind {
		case change.Bind, change.Replace:
			byEntity[r.Entity] = r.Value
		case change.Unbind:
			delete(byEntity, r.Entity)
		}
	}

	pairs := make([]Pair[E, T], 0, len(byEntity))
	for e, v := range byEntity {
		pairs = append(pairs, Pair[E, T]{Entity: e, Value: v})
	}
	c.idx = newLikeIndex(c.idx)
	c.load(pairs)
	return nil
}

// Partition splits this collection into shards under scheme, building a
// PartitionedCoW whose shards are independent CopyOnWrite collections.
func (c *CopyOnWrite[E, T]) Partition(scheme PartitioningScheme[E]) *PartitionedCoW[E, T] {
	buckets := bucketize(scheme, c.Scan())
	shards := make([]*CopyOnWrite[E, T], len(buckets))
	for i, b := range buckets {
		shards[i] = CopyOnWriteFromIter[E, T](b)
	}
	return &PartitionedCoW[E, T]{brand: change.NewBrand(), scheme: scheme, shards: shards}
}

// Begin starts one system run against this collection, returning a Run bound
// to a fresh change batch.
func (c *CopyOnWrite[E, T]) Begin() Run[E, *handle.CopyOnWrite[E, T]] {
	return &cowRun[E, T]{coll: c, batch: change.NewBatch[E, T](c.brand)}
}

type cowRun[E entity.ID[E], T any] struct {
	coll  *CopyOnWrite[E, T]
	batch *change.Batch[E, T]
}

func (r *cowRun[E, T]) NewCursor() Cursor[E, *handle.CopyOnWrite[E, T]] {
	return &cowCursor[E, T]{run: r, pos: 0}
}

func (r *cowRun[E, T]) Lookup(e E) (*handle.CopyOnWrite[E, T], bool) {
	pos, ok := r.coll.idx.Lookup(e)
	if !ok {
		return nil, false
	}
	return handle.NewCopyOnWrite(e, r.coll.values[pos], r.batch), true
}

func (r *cowRun[E, T]) Finish() Finished[E] {
	return finishedBatch[E, T]{batch: r.batch, apply: r.coll.Apply}
}

type cowCursor[E entity.ID[E], T any] struct {
	run *cowRun[E, T]
	pos int
}

func (c *cowCursor[E, T]) Entity() (E, bool) {
	if c.pos >= len(c.run.coll.entities) {
		var zero E
		return zero, false
	}
	return c.run.coll.entities[c.pos], true
}

func (c *cowCursor[E, T]) Handle() *handle.CopyOnWrite[E, T] {
	return handle.NewCopyOnWrite(c.run.coll.entities[c.pos], c.run.coll.values[c.pos], c.run.batch)
}

func (c *cowCursor[E, T]) Advance() { c.pos++ }

// finishedBatch adapts a concrete *change.Batch[E,T] plus its apply function
// to the type-erased Finished interface, the one place per run a storage
// strategy's value type T is boxed away.
type finishedBatch[E entity.ID[E], T any] struct {
	batch *change.Batch[E, T]
	apply func(*change.Batch[E, T]) error
}

func (f finishedBatch[E, T]) Len() int     { return f.batch.Len() }
func (f finishedBatch[E, T]) IsEmpty() bool { return f.batch.IsEmpty() }
func (f finishedBatch[E, T]) Apply() error { return f.apply(f.batch) }

func (f finishedBatch[E, T]) Records() []AnyRecord[E] {
	recs := f.batch.Records()
	out := make([]AnyRecord[E], len(recs))
	for i, r := range recs {
		out[i] = AnyRecord[E]{Kind: r.Kind, Entity: r.Entity, Value: r.Value}
	}
	return out
}

// PartitionedCoW is a CopyOnWrite collection fragmented into shards by a
// PartitioningScheme. Each shard is an independent CopyOnWrite collection;
// PartitionedCoW itself does not implement Source, so it cannot be handed to
// a sequential join or run_subset — only SystemParallel consumes it.
type PartitionedCoW[E entity.ID[E], T any] struct {
	brand  *change.Brand
	scheme PartitioningScheme[E]
	shards []*CopyOnWrite[E, T]
}

// Brand identifies this partitioned collection for batch-origin checks on
// the merged batch a parallel run returns.
func (p *PartitionedCoW[E, T]) Brand() *change.Brand { return p.brand }

// Scheme returns the partitioning scheme shards were built under.
func (p *PartitionedCoW[E, T]) Scheme() PartitioningScheme[E] { return p.scheme }

// ShardCount reports the number of shards.
func (p *PartitionedCoW[E, T]) ShardCount() int { return len(p.shards) }

// Shard returns the i'th shard collection.
func (p *PartitionedCoW[E, T]) Shard(i int) *CopyOnWrite[E, T] { return p.shards[i] }

// ShardSource returns shard i as a Source, satisfying PartitionedSource.
func (p *PartitionedCoW[E, T]) ShardSource(i int) Source[E, *handle.CopyOnWrite[E, T]] {
	return p.shards[i]
}

// ApplyFinished rebuilds a typed batch from a merged, type-erased result and
// applies it, satisfying PartitionedSource.
func (p *PartitionedCoW[E, T]) ApplyFinished(f Finished[E]) error {
	return p.Apply(batchFromFinished[E, T](p.brand, f))
}

// Apply routes each record in batch to its owning shard (by scheme) and
// applies it there. batch must be branded for this PartitionedCoW, i.e. the
// merged batch a parallel Waiter returned for it.
func (p *PartitionedCoW[E, T]) Apply(batch *change.Batch[E, T]) error {
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
