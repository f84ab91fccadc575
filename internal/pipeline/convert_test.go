package pipeline

import (
	"testing"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/merge"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

func bumpedHeights(side int, bump grid.Point) (*merge.HeightMap, grid.Grid[int32]) {
	reference := grid.New[int32](side)
	plugin := reference.Clone()
	plugin.Set(bump, 80)

	m := merge.FromDifference[int32, int32, merge.ScalarOps[int32]](reference, plugin)
	return m, m.ToTerrain()
}

func TestOutputNormalsKeepsStoredAtUnmodifiedVertices(t *testing.T) {
	const side = 5
	bump := grid.Pt(2, 2)
	heightMap, terrain := bumpedHeights(side, bump)

	stored := grid.New[grid.Vec3[int8]](side)
	stored.Fill(grid.V3[int8](0, 0, 127))
	// A baked normal that recomputation would not reproduce.
	kept := grid.Pt(1, 1)
	stored.Set(kept, grid.V3[int8](10, 0, 126))

	normals := merge.Empty[grid.Vec3[int8], grid.Vec3[int32], merge.VecOps[int8]](stored)
	normals.SetValue(bump, grid.V3[int8](1, 2, 3))

	cell := &merge.LandscapeDiff{HeightMap: heightMap, VertexNormals: normals}
	out := outputNormals(cell, &terrain)
	if out == nil {
		t.Fatal("expected normals in the output")
	}

	if got := out.Get(kept); got != grid.V3[int8](10, 0, 126) {
		t.Errorf("expected stored normal kept at %v, got %v", kept, got)
	}
	// The modified vertex gets a freshly computed normal, not the
	// plugin's stored one.
	if want := land.VertexNormal(terrain, bump); out.Get(bump) != want {
		t.Errorf("expected recomputed normal %v at %v, got %v", want, bump, out.Get(bump))
	}
}

func TestOutputNormalsPanicsOnStrayNormalDelta(t *testing.T) {
	const side = 5
	heightMap, terrain := bumpedHeights(side, grid.Pt(2, 2))

	stored := grid.New[grid.Vec3[int8]](side)
	stored.Fill(grid.V3[int8](0, 0, 127))
	normals := merge.Empty[grid.Vec3[int8], grid.Vec3[int32], merge.VecOps[int8]](stored)
	// A normal delta where the elevation did not change.
	normals.SetValue(grid.Pt(3, 3), grid.V3[int8](1, 2, 3))

	cell := &merge.LandscapeDiff{HeightMap: heightMap, VertexNormals: normals}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a normal delta at an unmodified vertex")
		}
	}()
	outputNormals(cell, &terrain)
}
