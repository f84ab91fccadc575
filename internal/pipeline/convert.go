package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/merge"
	"github.com/Faultbox/mergedlands/internal/textures"
	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

const outputAuthor = "mergedlands"

// buildOutput converts the cleaned landmass into a TES3 plugin:
// unused textures are compacted away, every cell becomes a LAND
// record, and the header names the masters the merge was built on.
func buildOutput(merged *merge.LandmassDiff, registry *textures.Known, masters []esp.Master) *esp.Plugin {
	compaction := textures.RemappedFromUsed(usedTextures(merged, registry))
	if dropped := registry.RemoveUnused(compaction); dropped > 0 {
		logger.Debug("dropped unused textures", zap.Int("count", dropped))
	}

	output := &esp.Plugin{
		Header: esp.Header{
			Version:     1.3,
			Author:      outputAuthor,
			Description: fmt.Sprintf("Merged landmass, %d cells", len(merged.Cells)),
			Masters:     masters,
		},
	}

	for _, t := range registry.Sorted() {
		ltex := t.LTEX
		output.Textures = append(output.Textures, &ltex)
	}

	for coords, cell := range merged.Sorted() {
		output.Lands = append(output.Lands, toLAND(coords, cell, compaction))
	}

	return output
}

// usedTextures scans the merged texture grids and reports which
// registry indices are still referenced.
func usedTextures(merged *merge.LandmassDiff, registry *textures.Known) []bool {
	used := make([]bool, registry.Len())
	for _, cell := range merged.Cells {
		if cell.TextureIndices == nil {
			continue
		}
		for p := range cell.TextureIndices.Points() {
			if v := cell.TextureIndices.Value(p); v > 0 {
				used[v-1] = true
			}
		}
	}
	return used
}

// toLAND materializes one merged cell as a LAND record.
func toLAND(coords land.Coords, cell *merge.LandscapeDiff, compaction *textures.Remapped) *esp.LAND {
	rec := &esp.LAND{X: coords.X, Y: coords.Y}
	var channels land.Channels

	var heights *grid.Grid[int32]
	if cell.HeightMap != nil {
		terrain := cell.HeightMap.ToTerrain()
		heights = &terrain
		rec.Heights = land.EncodeHeights(terrain)
		channels |= land.Heights
	}

	if normals := outputNormals(cell, heights); normals != nil {
		rec.Normals = normals
		channels |= land.Normals
	}
	if cell.WorldMapData != nil {
		g := cell.WorldMapData.ToTerrain()
		rec.WorldMap = &g
		channels |= land.WorldMap
	}
	if cell.VertexColors != nil {
		g := cell.VertexColors.ToTerrain()
		rec.Colors = &g
		channels |= land.Colors
	}
	if cell.TextureIndices != nil {
		g := cell.TextureIndices.ToTerrain()
		textures.RemapGrid(&g, compaction)
		rec.Textures = &g
		channels |= land.Textures
	}

	rec.Included = channels.DataFlags()
	return rec
}

// outputNormals produces the cell's normals for export. Normals are
// recomputed from the merged elevations; vertices whose elevation is
// unchanged keep their stored normal verbatim. A stored normal delta
// at an unchanged vertex means the height-masked diffing was violated
// upstream, so it panics.
func outputNormals(cell *merge.LandscapeDiff, heights *grid.Grid[int32]) *grid.Grid[grid.Vec3[int8]] {
	if heights == nil {
		if cell.VertexNormals == nil {
			return nil
		}
		g := cell.VertexNormals.ToTerrain()
		return &g
	}

	computed := land.ComputeNormals(*heights)
	if cell.VertexNormals == nil {
		return &computed
	}

	for p := range cell.HeightMap.Points() {
		if cell.HeightMap.HasDifference(p) {
			continue
		}
		if cell.VertexNormals.HasDifference(p) {
			panic(fmt.Sprintf("pipeline: stored normal delta at unmodified vertex %v", p))
		}
		computed.Set(p, cell.VertexNormals.Value(p))
	}
	return &computed
}
