// Package land models decoded cell terrain: channel flags, the
// Landscape working form of an ESP LAND record, the elevation codec,
// and vertex-normal computation.
package land

import (
	"fmt"
	"strings"

	"github.com/Faultbox/mergedlands/pkg/esp"
)

// Channels is a bitset of terrain data channels. The on-disk DATA
// flags are coarser (heights, normals, and the world map share one
// bit); see FromDataFlags.
type Channels uint8

const (
	Heights Channels = 1 << iota
	Normals
	WorldMap
	Colors
	Textures

	AllChannels = Heights | Normals | WorldMap | Colors | Textures
)

// Has reports whether all bits of f are set.
func (c Channels) Has(f Channels) bool {
	return c&f == f
}

func (c Channels) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range []struct {
		bit  Channels
		name string
	}{
		{Heights, "heights"},
		{Normals, "normals"},
		{WorldMap, "worldmap"},
		{Colors, "colors"},
		{Textures, "textures"},
	} {
		if c.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "+")
}

// FromDataFlags widens the on-disk inclusion flags into per-channel
// bits.
func FromDataFlags(f esp.DataFlags) Channels {
	var c Channels
	if f.Has(esp.FlagHeightsNormals) {
		c |= Heights | Normals | WorldMap
	}
	if f.Has(esp.FlagVertexColors) {
		c |= Colors
	}
	if f.Has(esp.FlagTextures) {
		c |= Textures
	}
	return c
}

// DataFlags narrows the channel bits back to the on-disk form.
func (c Channels) DataFlags() esp.DataFlags {
	var f esp.DataFlags
	if c&(Heights|Normals|WorldMap) != 0 {
		f |= esp.FlagHeightsNormals
	}
	if c.Has(Colors) {
		f |= esp.FlagVertexColors
	}
	if c.Has(Textures) {
		f |= esp.FlagTextures
	}
	return f
}

// Coords addresses a cell on the exterior cell grid.
type Coords struct {
	X int32
	Y int32
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Compare orders coords by X, then Y. Merge output and logs iterate
// cells in this order so runs are reproducible.
func Compare(a, b Coords) int {
	if a.X != b.X {
		if a.X < b.X {
			return -1
		}
		return 1
	}
	switch {
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}
