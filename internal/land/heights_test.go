package land

import (
	"testing"

	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

func TestDecodeHeights(t *testing.T) {
	v := &esp.VertexHeights{
		Offset: 10,
		Gradient: grid.FromRows([][]int8{
			{0, 2, -1},
			{5, 0, 1},
			{-3, 4, 0},
		}),
	}

	terrain := DecodeHeights(v)

	want := [][]int32{
		{80, 96, 88},
		{120, 120, 128},
		{96, 128, 128},
	}
	for y, row := range want {
		for x, h := range row {
			if got := terrain.Get(grid.Pt(x, y)); got != h {
				t.Errorf("height at (%d,%d): expected %d, got %d", x, y, h, got)
			}
		}
	}
}

func TestEncodeHeights(t *testing.T) {
	terrain := grid.FromRows([][]int32{
		{80, 96, 88},
		{120, 120, 128},
		{96, 128, 128},
	})

	v := EncodeHeights(terrain)

	if v.Offset != 10 {
		t.Errorf("expected offset 10, got %v", v.Offset)
	}
	if g := v.Gradient.Get(grid.Pt(0, 0)); g != 0 {
		t.Errorf("expected zero first gradient, got %d", g)
	}
	if g := v.Gradient.Get(grid.Pt(1, 0)); g != 2 {
		t.Errorf("expected gradient 2 at (1,0), got %d", g)
	}
	if g := v.Gradient.Get(grid.Pt(0, 1)); g != 5 {
		t.Errorf("expected gradient 5 at (0,1), got %d", g)
	}
}

func TestHeightsRoundTrip(t *testing.T) {
	terrain := grid.New[int32](65)
	for p := range terrain.Points() {
		terrain.Set(p, int32((p.X*31+p.Y*17)%20-10)*HeightScale)
	}

	again := DecodeHeights(EncodeHeights(terrain))

	for p := range terrain.Points() {
		if again.Get(p) != terrain.Get(p) {
			t.Fatalf("round trip changed height at %v: %d vs %d", p, again.Get(p), terrain.Get(p))
		}
	}
}

func TestEncodeClampsSteepGradients(t *testing.T) {
	terrain := grid.FromRows([][]int32{
		{0, 100000},
		{0, 0},
	})

	v := EncodeHeights(terrain)

	if g := v.Gradient.Get(grid.Pt(1, 0)); g != 127 {
		t.Errorf("expected clamped gradient 127, got %d", g)
	}
}

func TestVertexNormalFlat(t *testing.T) {
	terrain := grid.New[int32](5)
	terrain.Fill(160)

	for p := range terrain.Points() {
		if n := VertexNormal(terrain, p); n != grid.V3[int8](0, 0, 127) {
			t.Fatalf("expected straight-up normal at %v, got %v", p, n)
		}
	}
}

func TestVertexNormalSlope(t *testing.T) {
	terrain := grid.New[int32](3)
	for p := range terrain.Points() {
		terrain.Set(p, int32(p.X)*HeightScale)
	}

	n := VertexNormal(terrain, grid.Pt(0, 0))
	if n.X != -8 || n.Y != 0 || n.Z != 127 {
		t.Errorf("expected normal (-8, 0, 127), got %v", n)
	}

	// Border vertices sample one step back, so a uniform slope
	// keeps the same normal across the whole grid.
	for _, p := range []grid.Point{grid.Pt(2, 0), grid.Pt(2, 2), grid.Pt(0, 2)} {
		if edge := VertexNormal(terrain, p); edge != n {
			t.Errorf("expected normal %v at border %v, got %v", n, p, edge)
		}
	}
}

func TestComputeNormals(t *testing.T) {
	terrain := grid.New[int32](4)
	terrain.Fill(0)

	normals := ComputeNormals(terrain)
	if normals.Side() != 4 {
		t.Fatalf("expected side 4, got %d", normals.Side())
	}
	if n := normals.Get(grid.Pt(2, 2)); n != grid.V3[int8](0, 0, 127) {
		t.Errorf("expected straight-up normal, got %v", n)
	}
}
