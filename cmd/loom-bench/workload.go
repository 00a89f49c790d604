package main

import (
	"github.com/cuemby/loom/pkg/component"
	"github.com/cuemby/loom/pkg/entity"
)

// Position and Velocity are the two components loom-bench joins every tick:
// Position lives in a Mutable collection (in-place edits), Velocity in a
// CopyOnWrite collection (read-only from the move system's perspective).
type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// buildWorld seeds n entities, each with both a Position and a Velocity,
// entity IDs assigned densely from 1 so both collections start presorted.
func buildWorld(n int) (*component.Mutable[entity.U64, Position], *component.CopyOnWrite[entity.U64, Velocity]) {
	positions := make([]component.Pair[entity.U64, Position], n)
	velocities := make([]component.Pair[entity.U64, Velocity], n)
	for i := 0; i < n; i++ {
		id := entity.U64(i + 1)
		positions[i] = component.Pair[entity.U64, Position]{Entity: id, Value: Position{}}
		velocities[i] = component.Pair[entity.U64, Velocity]{
			Entity: id,
			Value:  Velocity{DX: float64(i%7) - 3, DY: float64(i%5) - 2},
		}
	}
	return component.MutableFromIter(positions), component.CopyOnWriteFromIter(velocities)
}

func hashU64(e entity.U64) uint64 { return uint64(e) }
