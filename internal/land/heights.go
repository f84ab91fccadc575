package land

import (
	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// HeightScale converts between stored gradient units and world
// elevation units.
const HeightScale = 8

// DecodeHeights expands the stored offset+gradient form into absolute
// elevations. The first column accumulates downward; each row then
// accumulates left to right from its first value.
func DecodeHeights(v *esp.VertexHeights) grid.Grid[int32] {
	side := v.Gradient.Side()
	terrain := grid.New[int32](side)

	height := int32(v.Offset)
	for y := 0; y < side; y++ {
		height += int32(v.Gradient.Get(grid.Pt(0, y)))
		rowStart := height
		terrain.Set(grid.Pt(0, y), rowStart*HeightScale)

		row := rowStart
		for x := 1; x < side; x++ {
			row += int32(v.Gradient.Get(grid.Pt(x, y)))
			terrain.Set(grid.Pt(x, y), row*HeightScale)
		}
		height = rowStart
	}

	return terrain
}

// EncodeHeights packs absolute elevations back into offset+gradient
// form. Gradient steps outside [-128, 127] are clamped silently.
func EncodeHeights(terrain grid.Grid[int32]) *esp.VertexHeights {
	side := terrain.Side()
	pixel := func(p grid.Point) int32 {
		return terrain.Get(p) / HeightScale
	}

	v := &esp.VertexHeights{
		Offset:   float32(pixel(grid.Pt(0, 0))),
		Gradient: grid.New[int8](side),
	}

	for y := 1; y < side; y++ {
		step := pixel(grid.Pt(0, y)) - pixel(grid.Pt(0, y-1))
		v.Gradient.Set(grid.Pt(0, y), clampGradient(step))
	}
	for y := 0; y < side; y++ {
		for x := 1; x < side; x++ {
			step := pixel(grid.Pt(x, y)) - pixel(grid.Pt(x-1, y))
			v.Gradient.Set(grid.Pt(x, y), clampGradient(step))
		}
	}

	return v
}

func clampGradient(step int32) int8 {
	if step < -128 {
		return -128
	}
	if step > 127 {
		return 127
	}
	return int8(step)
}
