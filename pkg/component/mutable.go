package component

import (
	"sort"

	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
	"github.com/cuemby/loom/pkg/handle"
	"github.com/cuemby/loom/pkg/index"
)

// Mutable is the Mutable ComponentCollection strategy. Reads and writes
// operate on live storage in place: a handler's handle.Mutable exposes a
// pointer directly into the value slot, so in-place edits need no
// finalization and are visible immediately within this collection, though
// invisible to any other collection or system until the run returns. Binding
// a brand-new entity is deferred to apply, since inserting mid-scan would
// disturb the ascending order the join engine relies on.
type Mutable[E entity.ID[E], T any] struct {
	brand    *change.Brand
	idx      index.Map[E]
	entities []E
	values   []T
}

// NewMutable constructs an empty Mutable collection backed by a btree
// EntityMap, favoring scan/lookup throughput over insert cost.
func NewMutable[E entity.ID[E], T any]() *Mutable[E, T] {
	return NewMutableWithIndex[E, T](index.NewSortedMap[E]())
}

// NewMutableWithIndex constructs an empty Mutable collection backed by the
// given EntityMap implementation.
func NewMutableWithIndex[E entity.ID[E], T any](idx index.Map[E]) *Mutable[E, T] {
	return &Mutable[E, T]{brand: change.NewBrand(), idx: idx}
}

// MutableFromIter constructs a Mutable collection from an initial set of
// (entity, value) pairs.
func MutableFromIter[E entity.ID[E], T any](pairs []Pair[E, T]) *Mutable[E, T] {
	c := NewMutable[E, T]()
	c.load(pairs)
	return c
}

func (c *Mutable[E, T]) load(pairs []Pair[E, T]) {
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
func (c *Mutable[E, T]) Brand() *change.Brand { return c.brand }

// Len reports the number of present entities.
func (c *Mutable[E, T]) Len() int { return len(c.entities) }

// Get returns a read-only snapshot of e's current live value, if present.
func (c *Mutable[E, T]) Get(e E) (handle.ReadOnly[T], bool) {
	pos, ok := c.idx.Lookup(e)
	if !ok {
		return handle.ReadOnly[T]{}, false
	}
	return handle.NewReadOnly(c.values[pos]), true
}

// Scan returns every (entity, value) pair in ascending entity order.
func (c *Mutable[E, T]) Scan() []Pair[E, T] {
	out := make([]Pair[E, T], len(c.entities))
	for i, e := range c.entities {
		out[i] = Pair[E, T]{Entity: e, Value: c.values[i]}
	}
	return out
}

// Apply merges deferred binds and applies recorded unbinds. In-place edits
// made through handle.Mutable.ValueMut during the run are already persisted
// in the live values slice, so they survive apply automatically; per the
// resolved edit-then-unbind Open Question, a staged unbind always wins over
// whatever value an entity was last edited to.
func (c *Mutable[E, T]) Apply(batch *change.Batch[E, T]) error {
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

func newLikeIndex[E entity.ID[E]](old index.Map[E]) index.Map[E] {
	switch old.(type) {
	case *index.SortedMap[E]:
		return index.NewSortedMap[E]()
	default:
		return index.NewHashMap[E]()
	}
}

// Partition splits this collection into shards under scheme.
func (c *Mutable[E, T]) Partition(scheme PartitioningScheme[E]) *PartitionedMutable[E, T] {
	buckets := bucketize(scheme, c.Scan())
	shards := make([]*Mutable[E, T], len(buckets))
	for i, b := range buckets {
		shards[i] = MutableFromIter[E, T](b)
	}
	return &PartitionedMutable[E, T]{brand: change.NewBrand(), scheme: scheme, shards: shards}
}

// Begin starts one system run against this collection.
func (c *Mutable[E, T]) Begin() Run[E, *handle.Mutable[E, T]] {
	return &mutableRun[E, T]{coll: c, batch: change.NewBatch[E, T](c.brand)}
}

type mutableRun[E entity.ID[E], T any] struct {
	coll  *Mutable[E, T]
	batch *change.Batch[E, T]
}

func (r *mutableRun[E, T]) NewCursor() Cursor[E, *handle.Mutable[E, T]] {
	return &mutableCursor[E, T]{run: r, pos: 0}
}

func (r *mutableRun[E, T]) Lookup(e E) (*handle.Mutable[E, T], bool) {
	pos, ok := r.coll.idx.Lookup(e)
	if !ok {
		return nil, false
	}
	return handle.NewMutable(e, &r.coll.values[pos], r.batch), true
}

func (r *mutableRun[E, T]) Finish() Finished[E] {
	return finishedBatch[E, T]{batch: r.batch, apply: r.coll.Apply}
}

type mutableCursor[E entity.ID[E], T any] struct {
	run *mutableRun[E, T]
	pos int
}

func (c *mutableCursor[E, T]) Entity() (E, bool) {
	if c.pos >= len(c.run.coll.entities) {
		var zero E
		return zero, false
	}
	return c.run.coll.entities[c.pos], true
}

func (c *mutableCursor[E, T]) Handle() *handle.Mutable[E, T] {
	return handle.NewMutable(c.run.coll.entities[c.pos], &c.run.coll.values[c.pos], c.run.batch)
}

func (c *mutableCursor[E, T]) Advance() { c.pos++ }

// PartitionedMutable is a Mutable collection fragmented into shards.
type PartitionedMutable[E entity.ID[E], T any] struct {
	brand  *change.Brand
	scheme PartitioningScheme[E]
	shards []*Mutable[E, T]
}

func (p *PartitionedMutable[E, T]) Brand() *change.Brand          { return p.brand }
func (p *PartitionedMutable[E, T]) Scheme() PartitioningScheme[E] { return p.scheme }
func (p *PartitionedMutable[E, T]) ShardCount() int               { return len(p.shards) }
func (p *PartitionedMutable[E, T]) Shard(i int) *Mutable[E, T]    { return p.shards[i] }

// ShardSource returns shard i as a Source, satisfying PartitionedSource.
func (p *PartitionedMutable[E, T]) ShardSource(i int) Source[E, *handle.Mutable[E, T]] {
	return p.shards[i]
}

// ApplyFinished rebuilds a typed batch from a merged, type-erased result and
// applies it, satisfying PartitionedSource.
func (p *PartitionedMutable[E, T]) ApplyFinished(f Finished[E]) error {
	return p.Apply(batchFromFinished[E, T](p.brand, f))
}

// Apply routes each record in batch to its owning shard and applies it there.
func (p *PartitionedMutable[E, T]) Apply(batch *change.Batch[E, T]) error {
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
