package merge

import (
	"fmt"
	"iter"

	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Relative stores one channel of a cell as a reference grid plus a
// grid of differences from that reference, with a boolean mask
// tracking which vertices differ.
//
// Invariant: changed[p] is true exactly when relative[p] is nonzero.
// The accessors check it from both sides and panic on violation,
// since a broken mask silently corrupts every later merge.
type Relative[V, D comparable, O Ops[V, D]] struct {
	ops       O
	reference grid.Grid[V]
	relative  grid.Grid[D]
	changed   grid.Grid[bool]
}

// Channel aliases used by the landscape diff.
type (
	HeightMap  = Relative[int32, int32, ScalarOps[int32]]
	NormalsMap = Relative[grid.Vec3[int8], grid.Vec3[int32], VecOps[int8]]
	WorldMap   = Relative[uint8, int32, ScalarOps[uint8]]
	ColorsMap  = Relative[grid.Vec3[uint8], grid.Vec3[int32], VecOps[uint8]]
	TexIdxMap  = Relative[uint16, int32, ScalarOps[uint16]]
)

// Empty returns a map with no differences from the reference.
func Empty[V, D comparable, O Ops[V, D]](reference grid.Grid[V]) *Relative[V, D, O] {
	return &Relative[V, D, O]{
		reference: reference.Clone(),
		relative:  grid.New[D](reference.Side()),
		changed:   grid.New[bool](reference.Side()),
	}
}

// FromDifference returns the map of plugin relative to reference.
func FromDifference[V, D comparable, O Ops[V, D]](reference, plugin grid.Grid[V]) *Relative[V, D, O] {
	out := Empty[V, D, O](reference)
	for p := range reference.Points() {
		out.SetValue(p, plugin.Get(p))
	}
	return out
}

// Side returns the grid side length.
func (r *Relative[V, D, O]) Side() int {
	return r.reference.Side()
}

// Points iterates the grid positions in row-major order.
func (r *Relative[V, D, O]) Points() iter.Seq[grid.Point] {
	return r.reference.Points()
}

// Value returns reference + difference at p.
func (r *Relative[V, D, O]) Value(p grid.Point) V {
	return r.ops.Add(r.reference.Get(p), r.relative.Get(p))
}

// SetValue stores value at p as a difference from the reference.
func (r *Relative[V, D, O]) SetValue(p grid.Point, value V) {
	r.SetDifference(p, r.ops.Sub(value, r.reference.Get(p)))
}

// Difference returns the difference at p.
func (r *Relative[V, D, O]) Difference(p grid.Point) D {
	var zero D
	delta := r.relative.Get(p)
	if (delta != zero) != r.changed.Get(p) {
		panic(fmt.Sprintf("merge: difference mask out of sync at %v", p))
	}
	return delta
}

// SetDifference stores the difference at p and updates the mask.
func (r *Relative[V, D, O]) SetDifference(p grid.Point, delta D) {
	var zero D
	r.relative.Set(p, delta)
	r.changed.Set(p, delta != zero)
}

// HasDifference reports whether p differs from the reference.
func (r *Relative[V, D, O]) HasDifference(p grid.Point) bool {
	var zero D
	changed := r.changed.Get(p)
	if (r.relative.Get(p) != zero) != changed {
		panic(fmt.Sprintf("merge: difference mask out of sync at %v", p))
	}
	return changed
}

// Differences exposes the difference mask. Callers must not mutate
// it.
func (r *Relative[V, D, O]) Differences() grid.Grid[bool] {
	return r.changed
}

// CleanAll removes every difference.
func (r *Relative[V, D, O]) CleanAll() {
	var zero D
	r.relative.Fill(zero)
	r.changed.Fill(false)
}

// CleanSome removes the differences at the given points.
func (r *Relative[V, D, O]) CleanSome(points iter.Seq[grid.Point]) {
	var zero D
	for p := range points {
		r.relative.Set(p, zero)
		r.changed.Set(p, false)
	}
}

// ToTerrain materializes the map as an absolute grid.
func (r *Relative[V, D, O]) ToTerrain() grid.Grid[V] {
	out := grid.New[V](r.Side())
	for p := range r.Points() {
		out.Set(p, r.Value(p))
	}
	return out
}

// Clone returns an independent copy sharing nothing with r.
func (r *Relative[V, D, O]) Clone() *Relative[V, D, O] {
	return &Relative[V, D, O]{
		reference: r.reference.Clone(),
		relative:  r.relative.Clone(),
		changed:   r.changed.Clone(),
	}
}

// IsModified reports whether any vertex differs from the reference.
// A nil map reports unmodified.
func (r *Relative[V, D, O]) IsModified() bool {
	if r == nil {
		return false
	}
	for _, c := range r.changed.Cells() {
		if c {
			return true
		}
	}
	return false
}

// NumDifferences counts the vertices differing from the reference.
func (r *Relative[V, D, O]) NumDifferences() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, c := range r.changed.Cells() {
		if c {
			n++
		}
	}
	return n
}
