// Package handle implements the three typed, per-entity accessors the join
// engine hands to a system's handler: ReadOnly, CopyOnWrite, and Mutable.
// Each handle is scoped to exactly one entity within exactly one handler
// invocation; Go has no borrow checker to enforce that a handle can't
// escape, so handles instead assert at the one place misuse is observable —
// calling Unbind twice — and document the rest as a caller discipline.
package handle

import (
	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
)

// ReadOnly exposes a shared, immutable view of one entity's component.
// Unbind is not part of its surface — a read-only collection never produces
// change records.
type ReadOnly[T any] struct {
	value T
}

// NewReadOnly wraps v as a read-only handle.
func NewReadOnly[T any](v T) ReadOnly[T] { return ReadOnly[T]{value: v} }

// Value returns the current value.
func (h ReadOnly[T]) Value() T { return h.value }

// CopyOnWrite exposes a CopyOnWrite collection's per-entity access: read the
// current value, stage a replacement, or stage an unbind. Nothing is
// written to storage until the owning batch is applied; dropping the handle
// without calling Set or Unbind stages no record at all.
type CopyOnWrite[E entity.ID[E], T any] struct {
	entity  E
	value   T
	batch   *change.Batch[E, T]
	unbound bool
}

// NewCopyOnWrite constructs a CoW handle for e backed by the run's shared
// batch for its collection.
func NewCopyOnWrite[E entity.ID[E], T any](e E, v T, batch *change.Batch[E, T]) *CopyOnWrite[E, T] {
	return &CopyOnWrite[E, T]{entity: e, value: v, batch: batch}
}

// Value returns the value observed at the start of this handler invocation,
// or the value most recently passed to Set on this handle.
func (h *CopyOnWrite[E, T]) Value() T { return h.value }

// Set stages a replace record for this entity; the live collection is
// unaffected until apply.
func (h *CopyOnWrite[E, T]) Set(v T) {
	h.value = v
	h.batch.Replace(h.entity, v)
}

// Unbind stages removal of this entity's component. Calling Unbind twice on
// the same handle is a ContractViolation and panics with errs.ErrDoubleUnbind.
func (h *CopyOnWrite[E, T]) Unbind() {
	if h.unbound {
		panic(errs.ErrDoubleUnbind)
	}
	h.unbound = true
	h.batch.Unbind(h.entity)
}

// Mutable exposes a Mutable (or InsertOptimized) collection's per-entity
// access: a pointer to the live value for in-place edits that need no
// finalization, plus staged unbind/bind for edits that would disturb the
// ascending scan if applied immediately.
type Mutable[E entity.ID[E], T any] struct {
	entity  E
	slot    *T
	batch   *change.Batch[E, T]
	unbound bool
}

// NewMutable constructs a Mutable handle for e, wrapping a pointer directly
// into the collection's live storage slot.
func NewMutable[E entity.ID[E], T any](e E, slot *T, batch *change.Batch[E, T]) *Mutable[E, T] {
	return &Mutable[E, T]{entity: e, slot: slot, batch: batch}
}

// ValueMut returns a pointer into live storage. Edits through it are visible
// immediately in the collection but invisible to any other collection or
// system until the current run returns. For an InsertOptimized collection the
// pointer is into the run's own copy of the values, and edits reach the
// collection when the run finishes.
func (h *Mutable[E, T]) ValueMut() *T { return h.slot }

// Unbind stages a deferred removal, applied when the run's batch is applied.
// Calling Unbind twice on the same handle is a ContractViolation and panics
// with errs.ErrDoubleUnbind. Per the resolved Open Question, an in-place
// edit made through ValueMut before Unbind is honored — apply only removes
// the entity, it never tries to revert storage already mutated live.
func (h *Mutable[E, T]) Unbind() {
	if h.unbound {
		panic(errs.ErrDoubleUnbind)
	}
	h.unbound = true
	h.batch.Unbind(h.entity)
}

// Bind stages a new entity into this handler's collection. Used to create
// an entity unrelated to the one currently being processed — binding the
// entity under scan directly would require immediate reinsertion into a
// live, ascending-order scan, which Bind defers to apply instead.
func (h *Mutable[E, T]) Bind(e E, v T) {
	h.batch.Bind(e, v)
}
