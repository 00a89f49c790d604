package component

import (
	"testing"

	"github.com/cuemby/loom/pkg/change"
	"github.com/cuemby/loom/pkg/entity"
	"github.com/cuemby/loom/pkg/errs"
	"github.com/stretchr/testify/assert"
)

func seedCoW(n int) *CopyOnWrite[entity.U32, int] {
	pairs := make([]Pair[entity.U32, int], n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair[entity.U32, int]{Entity: entity.U32(i + 1), Value: i}
	}
	return CopyOnWriteFromIter(pairs)
}

func TestCopyOnWriteScanIsAscending(t *testing.T) {
	c := seedCoW(5)
	got := c.Scan()
	assert.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Entity < got[i].Entity)
	}
}

func TestCopyOnWriteGetDoesNotSeeUnappliedStagedEdits(t *testing.T) {
	c := seedCoW(3)
	run := c.Begin()
	h, ok := run.Lookup(entity.U32(2))
	assert.True(t, ok)
	h.Set(999)

	got, ok := c.Get(entity.U32(2))
	assert.True(t, ok)
	assert.NotEqual(t, 999, got.Value())
}

func TestCopyOnWriteApplyCommitsReplaceAndUnbind(t *testing.T) {
	c := seedCoW(3)
	run := c.Begin()

	h, ok := run.Lookup(entity.U32(1))
	assert.True(t, ok)
	h.Set(100)

	h2, ok := run.Lookup(entity.U32(2))
	assert.True(t, ok)
	h2.Unbind()

	finished := run.Finish()
	assert.Equal(t, 2, finished.Len())
	assert.NoError(t, finished.Apply())

	v1, ok := c.Get(entity.U32(1))
	assert.True(t, ok)
	assert.Equal(t, 100, v1.Value())

	_, ok = c.Get(entity.U32(2))
	assert.False(t, ok)

	assert.Equal(t, 2, c.Len())
}

func TestCopyOnWriteApplyRejectsForeignBatch(t *testing.T) {
	c1 := seedCoW(2)
	c2 := seedCoW(2)
	batch := change.NewBatch[entity.U32, int](c2.Brand())
	batch.Replace(entity.U32(1), 5)

	err := c1.Apply(batch)
	assert.ErrorIs(t, err, errs.ErrMismatchedBatch)
}

func TestCopyOnWriteCursorAdvanceTerminates(t *testing.T) {
	c := seedCoW(3)
	run := c.Begin()
	cursor := run.NewCursor()

	count := 0
	for {
		_, ok := cursor.Entity()
		if !ok {
			break
		}
		count++
		cursor.Advance()
	}
	assert.Equal(t, 3, count)
}

func TestCopyOnWritePartitionRoutesRecordsToOwningShard(t *testing.T) {
	c := seedCoW(10)
	scheme := NewHashScheme(3, func(e entity.U32) uint64 { return uint64(e) })
	partitioned := c.Partition(scheme)

	assert.Equal(t, 3, partitioned.ShardCount())

	total := 0
	for i := 0; i < partitioned.ShardCount(); i++ {
		total += partitioned.Shard(i).Len()
	}
	assert.Equal(t, 10, total)

	batch := change.NewBatch[entity.U32, int](partitioned.Brand())
	batch.Replace(entity.U32(1), 555)
	assert.NoError(t, partitioned.Apply(batch))

	got, ok := partitioned.Shard(scheme.PartitionOf(entity.U32(1))).Get(entity.U32(1))
	assert.True(t, ok)
	assert.Equal(t, 555, got.Value())
}

// entity.Pair128 has no native `<`, so a CopyOnWrite keyed on it only works
// if entity.Less dispatches through Pair128.Less rather than an operator.
func TestCopyOnWriteKeyedByPair128ScansInAscendingOrder(t *testing.T) {
	c := CopyOnWriteFromIter([]Pair[entity.Pair128, string]{
		{Entity: entity.Pair128{High: 2, Low: 0}, Value: "second-high"},
		{Entity: entity.Pair128{High: 1, Low: 9}, Value: "first-high-larger-low"},
		{Entity: entity.Pair128{High: 1, Low: 2}, Value: "first-high-smaller-low"},
	})

	got := c.Scan()
	assert.Equal(t, []Pair[entity.Pair128, string]{
		{Entity: entity.Pair128{High: 1, Low: 2}, Value: "first-high-smaller-low"},
		{Entity: entity.Pair128{High: 1, Low: 9}, Value: "first-high-larger-low"},
		{Entity: entity.Pair128{High: 2, Low: 0}, Value: "second-high"},
	}, got)

	v, ok := c.Get(entity.Pair128{High: 1, Low: 9})
	assert.True(t, ok)
	assert.Equal(t, "first-high-larger-low", v.Value())
}
