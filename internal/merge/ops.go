package merge

import "github.com/Faultbox/mergedlands/pkg/grid"

// Ops adapts a channel's stored value type V to its wider signed
// difference type D. Implementations are zero-size; the Relative map
// carries them as a type parameter.
type Ops[V, D comparable] interface {
	// Sub returns value - reference.
	Sub(value, reference V) D
	// Add returns reference + delta, narrowed back to V.
	Add(reference V, delta D) V
	// Widen lifts a value into difference space.
	Widen(value V) D
	// Resolve blends two disagreeing values in difference space and
	// classifies the disagreement.
	Resolve(lhs, rhs D, params ConflictParams) (D, Conflict)
}

// ScalarOps implements Ops for single-valued channels. Every scalar
// channel diffs through int32.
type ScalarOps[V grid.Scalar] struct{}

func (ScalarOps[V]) Sub(value, reference V) int32 {
	return int32(value) - int32(reference)
}

func (ScalarOps[V]) Add(reference V, delta int32) V {
	return V(int32(reference) + delta)
}

func (ScalarOps[V]) Widen(value V) int32 {
	return int32(value)
}

func (ScalarOps[V]) Resolve(lhs, rhs int32, params ConflictParams) (int32, Conflict) {
	return ResolveScalar(lhs, rhs, params)
}

// VecOps implements Ops for 3-component channels, component-wise.
type VecOps[T grid.Scalar] struct{}

func (VecOps[T]) Sub(value, reference grid.Vec3[T]) grid.Vec3[int32] {
	return grid.V3(
		int32(value.X)-int32(reference.X),
		int32(value.Y)-int32(reference.Y),
		int32(value.Z)-int32(reference.Z),
	)
}

func (VecOps[T]) Add(reference grid.Vec3[T], delta grid.Vec3[int32]) grid.Vec3[T] {
	return grid.V3(
		T(int32(reference.X)+delta.X),
		T(int32(reference.Y)+delta.Y),
		T(int32(reference.Z)+delta.Z),
	)
}

func (VecOps[T]) Widen(value grid.Vec3[T]) grid.Vec3[int32] {
	return grid.V3(int32(value.X), int32(value.Y), int32(value.Z))
}

// Resolve blends component-wise; the worst component decides the
// severity. Components that agree keep the lhs value.
func (VecOps[T]) Resolve(lhs, rhs grid.Vec3[int32], params ConflictParams) (grid.Vec3[int32], Conflict) {
	if lhs == rhs {
		return lhs, NoConflict
	}

	x, cx := ResolveScalar(lhs.X, rhs.X, params)
	y, cy := ResolveScalar(lhs.Y, rhs.Y, params)
	z, cz := ResolveScalar(lhs.Z, rhs.Z, params)

	severity := cx.worse(cy).worse(cz)
	if severity == NoConflict {
		severity = MinorConflict
	}
	return grid.V3(x, y, z), severity
}
