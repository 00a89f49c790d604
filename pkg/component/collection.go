// Package component implements the four ComponentCollection storage
// strategies — CopyOnWrite, Mutable, InsertOptimized, and Partitioned — that
// share one join contract while differing in write and read semantics.
//
// The join engine (pkg/join) and the system builder (pkg/system) only ever
// touch collections through the Source/Run/Cursor/Finished contracts defined
// here, so they stay generic over any storage strategy without runtime type
// switches in the per-entity hot path: per-entity steps are Cursor interface
// method calls, and values are boxed to type-erased records only at Finish
// (once per run), never in Cursor.Advance.
package component

import (
	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
)

// Pair is one (entity, value) input to a collection constructor.
type Pair[E entity.ID[E], T any] struct {
	Entity E
	Value  T
}

// Cursor walks one collection's entities in ascending order, the unit the
// join engine's merge advances one step at a time.
type Cursor[E entity.ID[E], H any] interface {
	// Entity returns the current entity, or ok=false once exhausted.
	Entity() (e E, ok bool)
	// Handle returns the handle for the current entity. Only valid while
	// Entity reports ok=true.
	Handle() H
	// Advance moves to the next entity.
	Advance()
}

// Run is one collection's live participation in a single system invocation:
// a cursor factory for the join's sorted merge, direct lookup for
// run_subset, and Finish to close out the run and recover its change batch.
type Run[E entity.ID[E], H any] interface {
	NewCursor() Cursor[E, H]
	Lookup(e E) (h H, ok bool)
	Finish() Finished[E]
}

// Source is anything the join engine and system builder can run a system
// against: a collection ready to Begin a run. Partitioned collections
// deliberately do not implement Source — only their shards do — which makes
// passing a Partitioned collection to a sequential join or run_subset a
// compile error rather than a runtime one, matching the specification's
// "compile-time-detectable misuse" requirement.
type Source[E entity.ID[E], H any] interface {
	Begin() Run[E, H]
}

// AnyRecord is a type-erased view of one staged change.Record, used only at
// the Finished boundary so a caller can inspect a batch (for durability,
// logging, or testing) without the system builder needing to carry each
// collection's value type through its own generic parameters.
type AnyRecord[E entity.ID[E]] struct {
	Kind   change.Kind
	Entity E
	Value  any
}

// Finished is the closed-out result of one collection's participation in a
// run: its change batch, ready to apply back onto the collection that
// produced it.
type Finished[E entity.ID[E]] interface {
	Len() int
	IsEmpty() bool
	// Apply commits the staged batch onto the collection that produced it.
	Apply() error
	// Records returns the staged edits in first-seen order, values boxed.
	Records() []AnyRecord[E]
}

// PartitioningScheme assigns every entity to exactly one shard, deterministically.
type PartitioningScheme[E entity.ID[E]] interface {
	PartitionOf(e E) int
	ShardCount() int
}

// NopPartitioningScheme is the degenerate default: every entity lands in the
// single shard 0.
type NopPartitioningScheme[E entity.ID[E]] struct{}

func (NopPartitioningScheme[E]) PartitionOf(E) int { return 0 }
func (NopPartitioningScheme[E]) ShardCount() int   { return 1 }

// PartitionedSource is what the parallel system builder needs from a
// fragmented collection: per-shard Sources to join against, and a way to
// commit a merged, type-erased result back without the builder itself ever
// needing to know the collection's value type. Each concrete Partitioned*
// type in this package implements PartitionedSource for its own handle type.
type PartitionedSource[E entity.ID[E], H any] interface {
	Brand() *change.Brand
	ShardCount() int
	// ShardSource returns shard i as a Source, for the join engine to Begin
	// a run against.
	ShardSource(i int) Source[E, H]
	// ApplyFinished re-shards a merged, type-erased result by entity and
	// applies each piece to its owning shard.
	ApplyFinished(f Finished[E]) error
}

// MergeFinished concatenates several Finished results into one type-erased
// Finished, safe because the parallel runner only ever merges results from
// shards that own disjoint entity ranges — no two inputs can stage a record
// for the same entity. The merged result is not bound to any collection: its
// Apply does nothing, and it is committed through
// PartitionedSource.ApplyFinished.
func MergeFinished[E entity.ID[E]](fins ...Finished[E]) Finished[E] {
	var all []AnyRecord[E]
	for _, f := range fins {
		if f == nil {
			continue
		}
		all = append(all, f.Records()...)
	}
	return mergedFinished[E]{records: all}
}

type mergedFinished[E entity.ID[E]] struct {
	records []AnyRecord[E]
}

func (m mergedFinished[E]) Len() int      { return len(m.records) }
func (m mergedFinished[E]) IsEmpty() bool { return len(m.records) == 0 }
func (m mergedFinished[E]) Apply() error  { return nil }
func (m mergedFinished[E]) Records() []AnyRecord[E] {
	return m.records
}

// batchFromFinished rebuilds a typed change.Batch from a type-erased
// Finished, the inverse of finishedBatch.Records — the second and last place
// per run a storage strategy's value type crosses the type-erasure boundary.
func batchFromFinished[E entity.ID[E], T any](brand *change.Brand, f Finished[E]) *change.Batch[E, T] {
	batch := change.NewBatch[E, T](brand)
	for _, r := range f.Records() {
		switch r.Kind {
		case change.Bind:
			v, _ := r.Value.(T)
			batch.Bind(r.Entity, v)
		case change.Replace:
			v, _ := r.Value.(T)
			batch.Replace(r.Entity, v)
		case change.Unbind:
			batch.Unbind(r.Entity)
		}
	}
	return batch
}

// HashScheme is a PartitioningScheme built from a caller-supplied hash
// function, for entity types (including string entities) where no single
// generic modulo operation applies. Integer entity types typically hash by
// casting to uint64; the caller owns that choice since entity.ID alone
// doesn't admit a generic numeric conversion.
type HashScheme[E entity.ID[E]] struct {
	shards int
	hash   func(E) uint64
}

// NewHashScheme builds a HashScheme with the given shard count and hash
// function. shards must be at least 1.
func NewHashScheme[E entity.ID[E]](shards int, hash func(E) uint64) HashScheme[E] {
	if shards < 1 {
		shards = 1
	}
	return HashScheme[E]{shards: shards, hash: hash}
}

func (s HashScheme[E]) PartitionOf(e E) int { return int(s.hash(e) % uint64(s.shards)) }
func (s HashScheme[E]) ShardCount() int     { return s.shards }

func bucketize[E entity.ID[E], T any](scheme PartitioningScheme[E], pairs []Pair[E, T]) [][]Pair[E, T] {
	n := scheme.ShardCount()
	buckets := make([][]Pair[E, T], n)
	for _, p := range pairs {
		s := scheme.PartitionOf(p.Entity)
		buckets[s] = append(buckets[s], p)
	}
	return buckets
}
