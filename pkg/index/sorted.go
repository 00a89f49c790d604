package index

import (
	"github.com/cuemby/loom/pkg/entity"
	"github.com/google/btree"
)

// SortedMap is the "fast" EntityMap variant backed by a google/btree.BTreeG:
// O(log n) insert/remove/lookup and an O(n) in-order Ascend for scans that
// never needs an extra sort pass, unlike HashMap.Sorted. This is the variant
// collections should pick when scan/lookup throughput dominates and rebuild
// cost on insert is acceptable — exactly the "sorted-array map" tradeoff the
// join engine's advancing iterators want on the collection driving the merge.
type SortedMap[E entity.ID[E]] struct {
	tree *btree.BTreeG[Entry[E]]
}

const sortedMapDegree = 32

func lessEntry[E entity.ID[E]](a, b Entry[E]) bool {
	return entity.Less(a.Entity, b.Entity)
}

// NewSortedMap constructs an empty btree-backed EntityMap.
func NewSortedMap[E entity.ID[E]]() *SortedMap[E] {
	return &SortedMap[E]{tree: btree.NewG(sortedMapDegree, lessEntry[E])}
}

func (m *SortedMap[E]) Insert(e E, slot int) {
	m.tree.ReplaceOrInsert(Entry[E]{Entity: e, Slot: slot})
}

func (m *SortedMap[E]) Remove(e E) (int, bool) {
	old, ok := m.tree.Delete(Entry[E]{Entity: e})
	return old.Slot, ok
}

func (m *SortedMap[E]) Lookup(e E) (int, bool) {
	got, ok := m.tree.Get(Entry[E]{Entity: e})
	return got.Slot, ok
}

func (m *SortedMap[E]) Len() int { return m.tree.Len() }

func (m *SortedMap[E]) Sorted() []Entry[E] {
	out := make([]Entry[E], 0, m.tree.Len())
	m.tree.Ascend(func(item Entry[E]) bool {
		out = append(out, item)
		return true
	})
	return out
}
