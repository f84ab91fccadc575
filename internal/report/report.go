// Package report exports PNG conflict reports for merged cells: a
// per-plugin diff image classifying every vertex, and a render of the
// merged channel.
package report

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/merge"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Images are upscaled so a 65×65 cell is comfortably visible.
const scaleFactor = 4

// Export thresholds: a cell's images are only written when the
// conflicts are numerous enough to be worth a look.
const (
	minorThresholdPct = 0.02
	majorThresholdPct = 0.001
)

var (
	colorUntouched = color.RGBA{A: 255}
	colorTouched   = color.RGBA{G: 255, A: 255}
	colorMinor     = color.RGBA{R: 255, G: 255, A: 255}
	colorMajor     = color.RGBA{R: 255, A: 255}
)

// SaveLandmassImages writes conflict images for every cell the plugin
// diff touches, comparing it against the merged landmass so far.
// Failures are logged and skipped; reports never abort a merge.
func SaveLandmassImages(dir string, merged, plugin *merge.LandmassDiff) {
	conflictsDir := filepath.Join(dir, "Conflicts")
	if err := os.MkdirAll(conflictsDir, 0755); err != nil {
		logger.Error("cannot create conflicts directory", zap.Error(err))
		return
	}

	params := merge.DefaultConflictParams()
	for coords, cell := range plugin.Sorted() {
		mergedCell := merged.Get(coords)
		if mergedCell == nil {
			continue
		}

		saveChannelImages(conflictsDir, coords, plugin.Plugin, "height_map",
			mergedCell.HeightMap, cell.HeightMap, params, renderHeights)
		saveChannelImages(conflictsDir, coords, plugin.Plugin, "vertex_normals",
			mergedCell.VertexNormals, cell.VertexNormals, params, nil)
		saveChannelImages(conflictsDir, coords, plugin.Plugin, "world_map_data",
			mergedCell.WorldMapData, cell.WorldMapData, params, renderWorldMap)
		saveChannelImages(conflictsDir, coords, plugin.Plugin, "vertex_colors",
			mergedCell.VertexColors, cell.VertexColors, params, nil)
	}
}

// saveChannelImages classifies each vertex of the incoming map
// against the merged one and writes the diff and merged images when
// the conflict counts clear the thresholds. A nil render marks a
// channel whose images are never worth exporting; its conflicts are
// still counted and logged.
func saveChannelImages[V, D comparable, O merge.Ops[V, D]](
	dir string,
	coords land.Coords,
	plugin, channel string,
	merged, incoming *merge.Relative[V, D, O],
	params merge.ConflictParams,
	render func(*merge.Relative[V, D, O]) image.Image,
) {
	if merged == nil || incoming == nil {
		return
	}

	var ops O
	side := merged.Side()
	diffImg := image.NewRGBA(image.Rect(0, 0, side, side))

	numMinor, numMajor := 0, 0
	for p := range merged.Points() {
		actual := ops.Widen(merged.Value(p))
		expected := ops.Widen(incoming.Value(p))

		c := colorUntouched
		if incoming.HasDifference(p) {
			switch _, severity := ops.Resolve(actual, expected, params); severity {
			case merge.NoConflict:
				c = colorTouched
			case merge.MinorConflict:
				c = colorMinor
				numMinor++
			case merge.MajorConflict:
				c = colorMajor
				numMajor++
			}
		}
		diffImg.SetRGBA(p.X, p.Y, c)
	}

	if numMinor == 0 && numMajor == 0 {
		return
	}

	vertices := float64(side * side)
	skip := float64(numMinor) < minorThresholdPct*vertices &&
		float64(numMajor) < majorThresholdPct*vertices
	if render == nil {
		skip = true
	}

	logger.Debug("channel conflicts",
		zap.String("cell", coords.String()),
		zap.String("channel", channel),
		zap.String("plugin", plugin),
		zap.Int("major", numMajor),
		zap.Int("minor", numMinor),
		zap.Bool("exported", !skip))

	if skip {
		return
	}

	diffName := fmt.Sprintf("%s_%d_%d_DIFF_%s.png", channel, coords.X, coords.Y, plugin)
	writePNG(filepath.Join(dir, diffName), upscale(diffImg))

	mergedName := fmt.Sprintf("%s_%d_%d_MERGED.png", channel, coords.X, coords.Y)
	writePNG(filepath.Join(dir, mergedName), upscale(render(merged)))
}

// renderHeights draws the merged elevations as normalized grayscale,
// tinted green where the vertex differs from the reference.
func renderHeights(m *merge.HeightMap) image.Image {
	side := m.Side()
	img := image.NewRGBA(image.Rect(0, 0, side, side))

	lo, hi := heightRange(m)
	for p := range m.Points() {
		luma := normalize(float64(m.Value(p)), lo, hi)
		if m.HasDifference(p) {
			img.SetRGBA(p.X, p.Y, color.RGBA{
				R: clampByte(float64(luma) * 0.98),
				G: clampByte(float64(luma) * 1.04),
				B: clampByte(float64(luma) * 0.98),
				A: 255,
			})
		} else {
			img.SetRGBA(p.X, p.Y, color.RGBA{R: luma, G: luma, B: luma, A: 255})
		}
	}

	return img
}

// renderWorldMap draws the merged world-map samples as normalized
// grayscale.
func renderWorldMap(m *merge.WorldMap) image.Image {
	side := m.Side()
	img := image.NewRGBA(image.Rect(0, 0, side, side))

	lo, hi := 255.0, 0.0
	for p := range m.Points() {
		v := float64(m.Value(p))
		lo = min(lo, v)
		hi = max(hi, v)
	}
	for p := range m.Points() {
		luma := normalize(float64(m.Value(p)), lo, hi)
		img.SetRGBA(p.X, p.Y, color.RGBA{R: luma, G: luma, B: luma, A: 255})
	}

	return img
}

func heightRange(m *merge.HeightMap) (lo, hi float64) {
	first := true
	for p := range m.Points() {
		v := float64(m.Value(p))
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func normalize(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 0
	}
	return uint8((v - lo) / (hi - lo) * 255)
}

func clampByte(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

func upscale(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*scaleFactor, bounds.Dy()*scaleFactor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		logger.Error("cannot create image file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		logger.Error("cannot encode image file", zap.String("path", path), zap.Error(err))
	}
}

// PaintDebugColors marks elevation conflicts directly in the merged
// vertex colors so they are visible in-game: red for major, yellow
// for minor. Yellow never overwrites red.
func PaintDebugColors(merged, plugin *merge.LandmassDiff) {
	params := merge.DefaultConflictParams()

	for coords, cell := range plugin.Sorted() {
		mergedCell := merged.Get(coords)
		if mergedCell == nil {
			continue
		}
		paintCellDebugColors(mergedCell, cell, params)
	}
}

func paintCellDebugColors(merged, plugin *merge.LandscapeDiff, params merge.ConflictParams) {
	lhs := merged.HeightMap
	rhs := plugin.HeightMap
	colors := merged.VertexColors
	if lhs == nil || rhs == nil || colors == nil {
		return
	}

	var (
		major = grid.V3[uint8](255, 0, 0)
		minor = grid.V3[uint8](255, 255, 0)
	)

	var ops merge.ScalarOps[int32]
	for p := range lhs.Points() {
		if !rhs.HasDifference(p) {
			continue
		}

		var paint grid.Vec3[uint8]
		switch _, severity := ops.Resolve(lhs.Value(p), rhs.Value(p), params); severity {
		case merge.MinorConflict:
			paint = minor
		case merge.MajorConflict:
			paint = major
		default:
			continue
		}

		current := colors.Value(p)
		canPaint := paint == major || (paint == minor && current != major)
		if canPaint {
			colors.SetValue(p, paint)
		}
	}
}
