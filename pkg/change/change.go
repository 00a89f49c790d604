// Package change implements the per-collection change batch: an ordered,
// owned record of bind/unbind/replace edits produced by one system run and
// applied back onto the collection that produced it. Batches are plain
// values — safely transferable across goroutines — branded with the
// identity of their source collection so applying a batch to the wrong
// collection is an early-detected programming error rather than silent
// corruption.
package change

import "github.com/cuemby/loom/pkg/entity"

// Kind distinguishes the three edit shapes a batch can carry.
type Kind int

const (
	// Bind records a brand-new (entity, value) pair.
	Bind Kind = iota
	// Unbind records the removal of an entity's component.
	Unbind
	// Replace records a new value for an entity already present.
	Replace
)

func (k Kind) String() string {
	switch k {
	case Bind:
		return "bind"
	case Unbind:
		return "unbind"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Record is one staged edit against a single entity.
type Record[E entity.ID[E], T any] struct {
	Kind   Kind
	Entity E
	Value  T // meaningful for Bind and Replace; zero for Unbind.
}

// Brand identifies the collection instance a Batch was produced for. Each
// collection owns exactly one Brand, created at construction; Batch.Brand
// lets Apply reject a batch produced by a different collection before it
// can corrupt storage.
type Brand struct{ _ byte }

// NewBrand allocates a fresh, comparable-by-identity brand.
func NewBrand() *Brand { return &Brand{} }

// Batch is the ordered, per-entity edit log returned from one system run.
// At most one record survives per entity: a later call for the same entity
// overwrites the earlier one (last write wins within the run that built the
// batch), while the first-seen position is kept so iteration order stays
// stable for logging and for deterministic apply passes.
type Batch[E entity.ID[E], T any] struct {
	brand   *Brand
	order   []E
	records map[E]Record[E, T]
}

// NewBatch creates an empty batch branded for the given collection.
func NewBatch[E entity.ID[E], T any](brand *Brand) *Batch[E, T] {
	return &Batch[E, T]{brand: brand, records: make(map[E]Record[E, T])}
}

// Brand reports the collection this batch was produced for.
func (b *Batch[E, T]) Brand() *Brand { return b.brand }

// Bind stages a new-entity bind, overwriting any earlier record for e.
func (b *Batch[E, T]) Bind(e E, v T) {
	b.stage(Record[E, T]{Kind: Bind, Entity: e, Value: v})
}

// Replace stages a value replacement, overwriting any earlier record for e.
func (b *Batch[E, T]) Replace(e E, v T) {
	b.stage(Record[E, T]{Kind: Replace, Entity: e, Value: v})
}

// Unbind stages a removal, overwriting any earlier record for e.
func (b *Batch[E, T]) Unbind(e E) {
	var zero T
	b.stage(Record[E, T]{Kind: Unbind, Entity: e, Value: zero})
}

// Has reports whether e already has a staged record in this batch, and
// what kind it is. Handle types use this to detect a double-unbind within
// a single invocation.
func (b *Batch[E, T]) Has(e E) (Kind, bool) {
	r, ok := b.records[e]
	return r.Kind, ok
}

func (b *Batch[E, T]) stage(r Record[E, T]) {
	if _, exists := b.records[r.Entity]; !exists {
		b.order = append(b.order, r.Entity)
	}
	b.records[r.Entity] = r
}

// Len reports the number of distinct entities with a staged record.
func (b *Batch[E, T]) Len() int { return len(b.order) }

// IsEmpty reports whether the batch has no staged records.
func (b *Batch[E, T]) IsEmpty() bool { return len(b.order) == 0 }

// Records returns the staged edits in first-seen order. The returned slice
// must not be mutated by callers.
func (b *Batch[E, T]) Records() []Record[E, T] {
	out := make([]Record[E, T], len(b.order))
	for i, e := range b.order {
		out[i] = b.records[e]
	}
	return out
}

// Merge appends another batch's records into b, preserving last-write-wins
// semantics across the merge: a record in other for an entity already staged
// in b overwrites it in place. The parallel runner does not use Merge; it
// combines per-shard results with component.MergeFinished.
func (b *Batch[E, T]) Merge(other *Batch[E, T]) {
	if other == nil {
		return
	}
	for _, r := range other.Records() {
		b.stage(r)
	}
}
