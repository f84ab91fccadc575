package merge

import (
	"slices"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Provenance records one plugin's contribution to a merged cell.
type Provenance struct {
	Plugin string
	Data   land.Channels
}

// LandscapeDiff is one cell's set of per-channel relative maps. A nil
// channel was absent, excluded by the plugin's sidecar, or unmodified.
type LandscapeDiff struct {
	Coords land.Coords

	HeightMap      *HeightMap
	VertexNormals  *NormalsMap
	WorldMapData   *WorldMap
	VertexColors   *ColorsMap
	TextureIndices *TexIdxMap

	Plugins []Provenance
}

// Strategies carries the sidecar's per-channel strategy overrides.
// The height map strategy also covers vertex normals. The zero value
// is all-Auto.
type Strategies struct {
	HeightMap      Strategy
	VertexColors   Strategy
	TextureIndices Strategy
	WorldMapData   Strategy
}

// FromReference builds a conflict-free diff of the landscape against
// itself: every allowed channel present, no differences.
func FromReference(l *land.Landscape, allowed land.Channels) *LandscapeDiff {
	d := &LandscapeDiff{
		Coords:  l.Coords,
		Plugins: []Provenance{{Plugin: l.Plugin}},
	}
	included := l.Data & allowed

	if included.Has(land.Heights) && l.Heights != nil {
		d.HeightMap = Empty[int32, int32, ScalarOps[int32]](*l.Heights)
	}
	if included.Has(land.Normals) && l.Normals != nil {
		d.VertexNormals = Empty[grid.Vec3[int8], grid.Vec3[int32], VecOps[int8]](*l.Normals)
	}
	if included.Has(land.WorldMap) && l.WorldMap != nil {
		d.WorldMapData = Empty[uint8, int32, ScalarOps[uint8]](*l.WorldMap)
	}
	if included.Has(land.Colors) && l.Colors != nil {
		d.VertexColors = Empty[grid.Vec3[uint8], grid.Vec3[int32], VecOps[uint8]](*l.Colors)
	}
	if included.Has(land.Textures) && l.Textures != nil {
		d.TextureIndices = Empty[uint16, int32, ScalarOps[uint16]](*l.Textures)
	}

	return d
}

// DiffLandscape diffs a plugin's landscape against the reference.
// Channels the plugin does not carry, the sidecar excludes, or that
// turn out unmodified come back nil. Normal differences are kept only
// where the elevation also changed; normals elsewhere are recomputed
// at conversion time anyway.
func DiffLandscape(plugin, reference *land.Landscape, allowed land.Channels) *LandscapeDiff {
	d := &LandscapeDiff{Coords: plugin.Coords}
	included := plugin.Data & allowed

	if included.Has(land.Heights) {
		d.HeightMap = diffChannel[int32, int32, ScalarOps[int32]](refGrid(reference, func(r *land.Landscape) *grid.Grid[int32] { return r.Heights }), plugin.Heights)
	}

	if included.Has(land.Normals) {
		normals := diffChannel[grid.Vec3[int8], grid.Vec3[int32], VecOps[int8]](refGrid(reference, func(r *land.Landscape) *grid.Grid[grid.Vec3[int8]] { return r.Normals }), plugin.Normals)
		if normals != nil {
			var heightMask *grid.Grid[bool]
			if d.HeightMap != nil {
				mask := d.HeightMap.Differences()
				heightMask = &mask
			}
			normals = MaskedBy(normals, heightMask)
			if !normals.IsModified() {
				normals = nil
			}
		}
		d.VertexNormals = normals
	}

	if included.Has(land.WorldMap) {
		d.WorldMapData = diffChannel[uint8, int32, ScalarOps[uint8]](refGrid(reference, func(r *land.Landscape) *grid.Grid[uint8] { return r.WorldMap }), plugin.WorldMap)
	}
	if included.Has(land.Colors) {
		d.VertexColors = diffChannel[grid.Vec3[uint8], grid.Vec3[int32], VecOps[uint8]](refGrid(reference, func(r *land.Landscape) *grid.Grid[grid.Vec3[uint8]] { return r.Colors }), plugin.Colors)
	}
	if included.Has(land.Textures) {
		d.TextureIndices = diffChannel[uint16, int32, ScalarOps[uint16]](refGrid(reference, func(r *land.Landscape) *grid.Grid[uint16] { return r.Textures }), plugin.Textures)
	}

	return d
}

func refGrid[V any](reference *land.Landscape, pick func(*land.Landscape) *grid.Grid[V]) *grid.Grid[V] {
	if reference == nil {
		return nil
	}
	return pick(reference)
}

// diffChannel computes plugin relative to reference, diffing against
// a zero grid when the reference lacks the channel. Unmodified maps
// collapse to nil.
func diffChannel[V, D comparable, O Ops[V, D]](reference, plugin *grid.Grid[V]) *Relative[V, D, O] {
	if plugin == nil {
		return nil
	}

	ref := reference
	if ref == nil {
		zero := grid.New[V](plugin.Side())
		ref = &zero
	}

	relative := FromDifference[V, D, O](*ref, *plugin)
	if !relative.IsModified() {
		return nil
	}
	return relative
}

// MaskedBy removes differences outside the allow mask. A nil mask
// removes everything.
func MaskedBy[V, D comparable, O Ops[V, D]](m *Relative[V, D, O], allow *grid.Grid[bool]) *Relative[V, D, O] {
	out := m.Clone()
	if allow == nil {
		out.CleanAll()
		return out
	}
	out.CleanSome(func(yield func(grid.Point) bool) {
		for p := range m.Points() {
			if !allow.Get(p) {
				if !yield(p) {
					return
				}
			}
		}
	})
	return out
}

// IsModified reports whether any channel differs from the reference.
func (d *LandscapeDiff) IsModified() bool {
	return d.HeightMap.IsModified() ||
		d.VertexNormals.IsModified() ||
		d.WorldMapData.IsModified() ||
		d.VertexColors.IsModified() ||
		d.TextureIndices.IsModified()
}

// ModifiedData returns the channels that differ from the reference.
func (d *LandscapeDiff) ModifiedData() land.Channels {
	var modified land.Channels
	if d.HeightMap.IsModified() {
		modified |= land.Heights
	}
	if d.VertexNormals.IsModified() {
		modified |= land.Normals
	}
	if d.WorldMapData.IsModified() {
		modified |= land.WorldMap
	}
	if d.VertexColors.IsModified() {
		modified |= land.Colors
	}
	if d.TextureIndices.IsModified() {
		modified |= land.Textures
	}
	return modified
}

// Merge folds incoming into d under the sidecar strategies, returning
// a new diff. Channel defaults: texture indices overwrite, everything
// else resolves. Provenance is copied from d; the caller appends the
// incoming plugin's entry.
func (d *LandscapeDiff) Merge(incoming *LandscapeDiff, strategies Strategies, params ConflictParams) *LandscapeDiff {
	merged := &LandscapeDiff{
		Coords:  d.Coords,
		Plugins: slices.Clone(d.Plugins),
	}

	heightStrategy := concrete(strategies.HeightMap, Resolve)
	merged.HeightMap = Apply(heightStrategy, d.HeightMap, incoming.HeightMap, params)
	merged.VertexNormals = Apply(heightStrategy, d.VertexNormals, incoming.VertexNormals, params)
	merged.WorldMapData = Apply(concrete(strategies.WorldMapData, Resolve), d.WorldMapData, incoming.WorldMapData, params)
	merged.VertexColors = Apply(concrete(strategies.VertexColors, Resolve), d.VertexColors, incoming.VertexColors, params)
	merged.TextureIndices = Apply(concrete(strategies.TextureIndices, Overwrite), d.TextureIndices, incoming.TextureIndices, params)

	return merged
}

func concrete(s, fallback Strategy) Strategy {
	if s == Auto {
		return fallback
	}
	return s
}

// AddProvenance appends a plugin's contribution record.
func (d *LandscapeDiff) AddProvenance(plugin string, data land.Channels) {
	d.Plugins = append(d.Plugins, Provenance{Plugin: plugin, Data: data})
}
