package grid

// Scalar is the set of integer element types used by landscape
// channels: heights are int32, normals int8, colors and world-map
// samples uint8, texture indices uint16.
type Scalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32
}

// Vec3 is a 3-component grid cell value (a vertex normal or color).
type Vec3[T Scalar] struct {
	X T
	Y T
	Z T
}

// V3 returns the Vec3 (x, y, z).
func V3[T Scalar](x, y, z T) Vec3[T] {
	return Vec3[T]{X: x, Y: y, Z: z}
}
