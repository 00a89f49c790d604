package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLess(t *testing.T) {
	assert.True(t, Less(U32(1), U32(2)))
	assert.False(t, Less(U32(2), U32(1)))
	assert.False(t, Less(U32(1), U32(1)))
	assert.True(t, Less(U64(10), U64(20)))
}

func TestPair128Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Pair128
		want int
	}{
		{"equal", Pair128{High: 1, Low: 2}, Pair128{High: 1, Low: 2}, 0},
		{"less by high", Pair128{High: 1, Low: 9}, Pair128{High: 2, Low: 0}, -1},
		{"greater by high", Pair128{High: 2, Low: 0}, Pair128{High: 1, Low: 9}, 1},
		{"less by low, equal high", Pair128{High: 1, Low: 2}, Pair128{High: 1, Low: 3}, -1},
		{"greater by low, equal high", Pair128{High: 1, Low: 3}, Pair128{High: 1, Low: 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestPair128Less(t *testing.T) {
	small := Pair128{High: 1, Low: 9}
	big := Pair128{High: 2, Low: 0}
	assert.True(t, small.Less(big))
	assert.False(t, big.Less(small))
	assert.False(t, small.Less(small))

	// entity.Less must dispatch to Pair128's own Less, not the `<` operator
	// Pair128 has no native ordering for — this is what makes a struct-typed
	// 128-bit entity usable as an entity.ID at all.
	assert.True(t, Less(small, big))
}

func TestZeroSentinel(t *testing.T) {
	var s ZeroSentinel[U32]
	assert.True(t, s.IsSentinel(U32(0)))
	assert.False(t, s.IsSentinel(U32(1)))
}
