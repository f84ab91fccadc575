package land

import (
	"math"

	"github.com/Faultbox/mergedlands/pkg/grid"
)

// VertexNormal computes the surface normal at p from the elevation
// grid using forward differences. At the last row or column the
// sample position shifts back one vertex, so border normals carry the
// slope of the preceding step instead of flattening out.
func VertexNormal(heights grid.Grid[int32], p grid.Point) grid.Vec3[int8] {
	last := heights.Side() - 1
	if p.X == last {
		p.X--
	}
	if p.Y == last {
		p.Y--
	}

	h := float64(heights.Get(p)) / HeightScale
	dx := float64(heights.Get(grid.Pt(p.X+1, p.Y)))/HeightScale - h
	dy := float64(heights.Get(grid.Pt(p.X, p.Y+1)))/HeightScale - h

	// Cross product of the tangents (16, 0, dx) and (0, 16, dy).
	nx := -16 * dx
	ny := -16 * dy
	nz := 256.0

	hyp := math.Sqrt(nx*nx+ny*ny+nz*nz) / 127
	return grid.V3(
		roundToInt8(nx/hyp),
		roundToInt8(ny/hyp),
		roundToInt8(nz/hyp),
	)
}

// ComputeNormals computes normals for every vertex of the elevation
// grid.
func ComputeNormals(heights grid.Grid[int32]) grid.Grid[grid.Vec3[int8]] {
	normals := grid.New[grid.Vec3[int8]](heights.Side())
	for p := range heights.Points() {
		normals.Set(p, VertexNormal(heights, p))
	}
	return normals
}

func roundToInt8(v float64) int8 {
	return int8(math.Round(v))
}
