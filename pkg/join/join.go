// Package join implements the sorted-merge join engine: the advance-by-
// maximum algorithm that walks two or three ComponentCollection sources in
// lockstep ascending-entity order, invoking a handler only for entities
// present in every source, plus run_subset for direct lookup over an
// explicit, caller-ordered entity list. Go has no variadic generics, so the
// N-ary join from the specification is expressed here as fixed-arity Join2
// and Join3 functions rather than one generic-over-arity join.
package join

import (
	"github.com/cuemby/loom/pkg/component"
	"github.com/cuemby/loom/pkg/entity"
)

// Join2 runs an inner (AND) join over two sources: fn is invoked once per
// entity present in both, in ascending order. Cursors are advanced by the
// "max of currents" rule — whichever side holds the smaller entity steps
// forward alone until the two agree — so neither side is ever scanned twice.
// Returns each source's Finished batch regardless of outcome; if fn returns
// an error the walk stops immediately and the error is returned alongside
// whatever each side had already staged.
func Join2[E entity.ID[E], H1, H2 any](
	src1 component.Source[E, H1],
	src2 component.Source[E, H2],
	fn func(e E, h1 H1, h2 H2) error,
) (component.Finished[E], component.Finished[E], error) {
	run1 := src1.Begin()
	run2 := src2.Begin()
	c1 := run1.NewCursor()
	c2 := run2.NewCursor()

	for {
		e1, ok1 := c1.Entity()
		e2, ok2 := c2.Entity()
		if !ok1 || !ok2 {
			break
		}
		switch {
		case entity.Less(e1, e2):
			c1.Advance()
		case entity.Less(e2, e1):
			c2.Advance()
		default:
			if err := fn(e1, c1.Handle(), c2.Handle()); err != nil {
				return run1.Finish(), run2.Finish(), err
			}
			c1.Advance()
			c2.Advance()
		}
	}
	return run1.Finish(), run2.Finish(), nil
}

// Join3 runs an inner (AND) join over three sources. The maximum of the
// three cursors' current entities is computed on every step; any cursor
// holding a strictly smaller entity advances alone, and fn fires only once
// all three agree.
func Join3[E entity.ID[E], H1, H2, H3 any](
	src1 component.Source[E, H1],
	src2 component.Source[E, H2],
	src3 component.Source[E, H3],
	fn func(e E, h1 H1, h2 H2, h3 H3) error,
) (component.Finished[E], component.Finished[E], component.Finished[E], error) {
	run1 := src1.Begin()
	run2 := src2.Begin()
	run3 := src3.Begin()
	c1 := run1.NewCursor()
	c2 := run2.NewCursor()
	c3 := run3.NewCursor()

	for {
		e1, ok1 := c1.Entity()
		e2, ok2 := c2.Entity()
		e3, ok3 := c3.Entity()
		if !ok1 || !ok2 || !ok3 {
			break
		}

		max := e1
		if entity.Less(max, e2) {
			max = e2
		}
		if entity.Less(max, e3) {
			max = e3
		}

		if entity.Less(e1, max) {
			c1.Advance()
			continue
		}
		if entity.Less(e2, max) {
			c2.Advance()
			continue
		}
		if entity.Less(e3, max) {
			c3.Advance()
			continue
		}

		if err := fn(e1, c1.Handle(), c2.Handle(), c3.Handle()); err != nil {
			return run1.Finish(), run2.Finish(), run3.Finish(), err
		}
		c1.Advance()
		c2.Advance()
		c3.Advance()
	}
	return run1.Finish(), run2.Finish(), run3.Finish(), nil
}

// RunSubset invokes fn once for every entity in entities that is present in
// src, by direct lookup rather than a scan, in the order entities was given
// rather than ascending entity order. It is the specification's run_subset
// operation: cheap when the caller already knows which few entities matter,
// at the cost of one Lookup per entity instead of amortizing a shared scan.
//
// src must be a single collection's Source, never a Partitioned wrapper:
// Partitioned collections do not implement Source at all, so passing one
// here is a compile error rather than a surprise at run_subset time.
func RunSubset[E entity.ID[E], H any](
	src component.Source[E, H],
	entities []E,
	fn func(e E, h H) error,
) (component.Finished[E], error) {
	run := src.Begin()
	for _, e := range entities {
		h, ok := run.Lookup(e)
		if !ok {
			continue
		}
		if err := fn(e, h); err != nil {
			return run.Finish(), err
		}
	}
	return run.Finish(), nil
}
