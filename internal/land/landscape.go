package land

import (
	"fmt"

	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Landscape is the working form of one cell's terrain. Heights are
// decoded to absolute elevations; the other channels are copied as
// stored. Nil channels are absent from the source record.
type Landscape struct {
	Coords Coords
	Plugin string
	Data   Channels

	Heights  *grid.Grid[int32]
	Normals  *grid.Grid[grid.Vec3[int8]]
	WorldMap *grid.Grid[uint8]
	Colors   *grid.Grid[grid.Vec3[uint8]]
	Textures *grid.Grid[uint16]
}

// FromLAND decodes a LAND record into a Landscape. The elevation
// codec must round-trip on freshly parsed data; a mismatch means the
// codec and the record disagree and the merge cannot be trusted, so
// it panics.
func FromLAND(rec *esp.LAND, plugin string) *Landscape {
	l := &Landscape{
		Coords: Coords{X: rec.X, Y: rec.Y},
		Plugin: plugin,
		Data:   FromDataFlags(rec.Included),
	}

	if rec.Heights != nil {
		terrain := DecodeHeights(rec.Heights)
		assertHeightRoundTrip(terrain, l.Coords, plugin)
		l.Heights = &terrain
	}
	if rec.Normals != nil {
		g := rec.Normals.Clone()
		l.Normals = &g
	}
	if rec.WorldMap != nil {
		g := rec.WorldMap.Clone()
		l.WorldMap = &g
	}
	if rec.Colors != nil {
		g := rec.Colors.Clone()
		l.Colors = &g
	}
	if rec.Textures != nil {
		g := rec.Textures.Clone()
		l.Textures = &g
	}

	return l
}

// ToLAND re-encodes the Landscape as a LAND record.
func (l *Landscape) ToLAND() *esp.LAND {
	rec := &esp.LAND{
		X:        l.Coords.X,
		Y:        l.Coords.Y,
		Included: l.Data.DataFlags(),
	}

	if l.Heights != nil {
		rec.Heights = EncodeHeights(*l.Heights)
	}
	if l.Normals != nil {
		g := l.Normals.Clone()
		rec.Normals = &g
	}
	if l.WorldMap != nil {
		g := l.WorldMap.Clone()
		rec.WorldMap = &g
	}
	if l.Colors != nil {
		g := l.Colors.Clone()
		rec.Colors = &g
	}
	if l.Textures != nil {
		g := l.Textures.Clone()
		rec.Textures = &g
	}

	return rec
}

// Apply overlays src's present channels onto l, replacing them
// wholesale. Used when folding master files into the reference
// landmass.
func (l *Landscape) Apply(src *Landscape) {
	l.Plugin = src.Plugin
	l.Data |= src.Data

	if src.Heights != nil {
		g := src.Heights.Clone()
		l.Heights = &g
	}
	if src.Normals != nil {
		g := src.Normals.Clone()
		l.Normals = &g
	}
	if src.WorldMap != nil {
		g := src.WorldMap.Clone()
		l.WorldMap = &g
	}
	if src.Colors != nil {
		g := src.Colors.Clone()
		l.Colors = &g
	}
	if src.Textures != nil {
		g := src.Textures.Clone()
		l.Textures = &g
	}
}

// assertHeightRoundTrip re-encodes and re-decodes the terrain and
// requires the same elevations back. Fresh plugin data always
// satisfies this; a mismatch means the codec is losing information.
func assertHeightRoundTrip(terrain grid.Grid[int32], coords Coords, plugin string) {
	again := DecodeHeights(EncodeHeights(terrain))
	for p := range terrain.Points() {
		if again.Get(p) != terrain.Get(p) {
			panic(fmt.Sprintf("land: elevation codec did not round-trip at %v for cell %v of %s", p, coords, plugin))
		}
	}
}
