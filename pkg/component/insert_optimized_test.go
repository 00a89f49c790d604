package component

import (
	"testing"

	"github.com/cuemby/loom/pkg/entity"
	"github.com/stretchr/testify/assert"
)

func seedInsertOptimized(n int) *InsertOptimized[entity.U32, int] {
	pairs := make([]Pair[entity.U32, int], n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair[entity.U32, int]{Entity: entity.U32(i + 1), Value: i}
	}
	return InsertOptimizedFromIter(pairs)
}

func TestInsertBetweenTicksIsVisibleToGet(t *testing.T) {
	c := seedInsertOptimized(3)
	c.InsertBetweenTicks(entity.U32(50), 999)

	got, ok := c.Get(entity.U32(50))
	assert.True(t, ok)
	assert.Equal(t, 999, got.Value())
	assert.Equal(t, 4, c.Len())
}

func TestScanMergesOverflowInAscendingOrder(t *testing.T) {
	c := seedInsertOptimized(3) // entities 1,2,3
	c.InsertBetweenTicks(entity.U32(0), -1)
	c.InsertBetweenTicks(entity.U32(2), 222) // collides with a main-vector entity's neighbor position

	got := c.Scan()
	assert.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Entity < got[i].Entity)
	}
	assert.Equal(t, entity.U32(0), got[0].Entity)
}

func TestApplyFoldsOverflowAndClearsIt(t *testing.T) {
	c := seedInsertOptimized(2)
	c.InsertBetweenTicks(entity.U32(50), 999)

	run := c.Begin()
	assert.NoError(t, run.Finish().Apply())

	got, ok := c.Get(entity.U32(50))
	assert.True(t, ok)
	assert.Equal(t, 999, got.Value())

	got2 := c.Scan()
	assert.Len(t, got2, 3)
}

func TestBeginSeesOverflowButLeavesItUntouchedUntilApply(t *testing.T) {
	c := seedInsertOptimized(2)
	c.InsertBetweenTicks(entity.U32(50), 999)

	run := c.Begin()
	h, ok := run.Lookup(entity.U32(50))
	assert.True(t, ok)
	assert.Equal(t, 999, *h.ValueMut())

	// overflow buffer still holds it directly, independent of the run's snapshot
	_, stillOverflow := c.overflow[entity.U32(50)]
	assert.True(t, stillOverflow)
}

func TestPartitionFoldsOverflowBeforeBucketizing(t *testing.T) {
	c := seedInsertOptimized(3)
	c.InsertBetweenTicks(entity.U32(50), 999)

	scheme := NewHashScheme(2, func(e entity.U32) uint64 { return uint64(e) })
	partitioned := c.Partition(scheme)

	total := 0
	for i := 0; i < partitioned.ShardCount(); i++ {
		total += partitioned.Shard(i).Len()
	}
	assert.Equal(t, 4, total)
}
