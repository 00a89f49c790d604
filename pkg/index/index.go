// Package index implements EntityMap, the internal structure every
// ComponentCollection uses to translate an Entity into its slot in a dense
// value vector. Two variants are provided — a hash-backed map and a
// btree-backed "fast" map — and both satisfy the same Map contract so
// collections are parametric over the choice.
package index

import (
	"sort"

	"github.com/cuemby/loom/pkg/entity"
)

// Entry is one (entity, slot) pairing as yielded by Map.Sorted.
type Entry[E entity.ID[E]] struct {
	Entity E
	Slot   int
}

// Map is the EntityMap contract from the specification: insert, remove,
// lookup, and ascending iteration. Implementations only index entity->slot;
// they never own the values stored at those slots.
type Map[E entity.ID[E]] interface {
	// Insert records e at slot, overwriting any previous slot for e.
	Insert(e E, slot int)
	// Remove deletes e's mapping and reports the slot it held.
	Remove(e E) (slot int, ok bool)
	// Lookup reports e's current slot, if present.
	Lookup(e E) (slot int, ok bool)
	// Len reports the number of indexed entities.
	Len() int
	// Sorted returns all entries in ascending entity order.
	Sorted() []Entry[E]
}

// HashMap is the hash-backed EntityMap variant: O(1) amortized insert,
// remove, and lookup, at the cost of an O(n log n) sort on every Sorted call.
// Good for collections dominated by point writes (InsertOptimized storage).
type HashMap[E entity.ID[E]] struct {
	slots map[E]int
}

// NewHashMap constructs an empty hash-backed EntityMap.
func NewHashMap[E entity.ID[E]]() *HashMap[E] {
	return &HashMap[E]{slots: make(map[E]int)}
}

func (m *HashMap[E]) Insert(e E, slot int) { m.slots[e] = slot }

func (m *HashMap[E]) Remove(e E) (int, bool) {
	slot, ok := m.slots[e]
	if ok {
		delete(m.slots, e)
	}
	return slot, ok
}

func (m *HashMap[E]) Lookup(e E) (int, bool) {
	slot, ok := m.slots[e]
	return slot, ok
}

func (m *HashMap[E]) Len() int { return len(m.slots) }

func (m *HashMap[E]) Sorted() []Entry[E] {
	out := make([]Entry[E], 0, len(m.slots))
	for e, slot := range m.slots {
		out = append(out, Entry[E]{Entity: e, Slot: slot})
	}
	sort.Slice(out, func(i, j int) bool { return entity.Less(out[i].Entity, out[j].Entity) })
	return out
}
