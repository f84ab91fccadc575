// Package repair removes elevation seams between adjacent cells after
// merging, and performs the final cleanup pass before export.
package repair

import (
	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/merge"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// cellPair is an unordered pair of adjacent cells, stored with the
// lesser coordinate first.
type cellPair struct {
	lhs land.Coords
	rhs land.Coords
}

func orderedPair(a, b land.Coords) cellPair {
	if land.Compare(a, b) > 0 {
		a, b = b, a
	}
	return cellPair{lhs: a, rhs: b}
}

// corner is one cell's vertex contributing to a shared corner.
type corner struct {
	point  grid.Point
	offset land.Coords
}

// RepairSeams makes the elevations along cell borders agree again.
// Corners shared by up to four cells are averaged first; the edge
// pass then walks adjacent pairs seeded from the landmass's
// possible-seams set and averages any remaining disagreements.
// Returns the number of repaired vertices. The possible-seams set is
// consumed.
func RepairSeams(landmass *merge.LandmassDiff) int {
	seeds := landmass.PossibleSeams()
	landmass.ClearPossibleSeams()

	repaired := 0
	queue := make([]cellPair, 0, len(seeds)*4)
	visited := make(map[cellPair]struct{})

	for _, coords := range seeds {
		repaired += repairCorners(landmass, coords)

		for _, offset := range [4]land.Coords{{X: -1}, {X: 1}, {Y: 1}, {Y: -1}} {
			neighbor := land.Coords{X: coords.X + offset.X, Y: coords.Y + offset.Y}
			pair := orderedPair(coords, neighbor)
			if _, seen := visited[pair]; !seen {
				visited[pair] = struct{}{}
				queue = append(queue, pair)
			}
		}
	}

	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		repaired += repairEdge(landmass, pair)
	}

	if repaired > 0 {
		logger.Debug("repaired seams", zap.Int("vertices", repaired))
	}

	return repaired
}

// repairCorners fixes the four corner vertices around coords. Every
// vertex shared by up to four cells is set to the truncating average
// of the values the present cells hold for it.
func repairCorners(landmass *merge.LandmassDiff, coords land.Coords) int {
	cases := cornerCases(landmass, coords)

	repaired := 0
	for _, corners := range cases {
		var sum int32
		var count int32
		for _, c := range corners {
			if m := heightMapAt(landmass, coords, c.offset); m != nil {
				sum += m.Value(c.point)
				count++
			}
		}
		if count == 0 {
			continue
		}
		average := sum / count

		for _, c := range corners {
			m := heightMapAt(landmass, coords, c.offset)
			if m == nil {
				continue
			}
			if m.Value(c.point) != average {
				m.SetValue(c.point, average)
				repaired++
			}
		}
	}

	return repaired
}

// cornerCases enumerates the four shared corners of the cell at
// coords: for each, the vertex each of the (up to) four contributing
// cells holds for it.
func cornerCases(landmass *merge.LandmassDiff, coords land.Coords) [4][4]corner {
	last := heightSide(landmass, coords) - 1
	return [4][4]corner{
		{ // south-west vertex
			{point: grid.Pt(0, 0), offset: land.Coords{}},
			{point: grid.Pt(0, last), offset: land.Coords{Y: -1}},
			{point: grid.Pt(last, 0), offset: land.Coords{X: -1}},
			{point: grid.Pt(last, last), offset: land.Coords{X: -1, Y: -1}},
		},
		{ // south-east vertex
			{point: grid.Pt(last, 0), offset: land.Coords{}},
			{point: grid.Pt(last, last), offset: land.Coords{Y: -1}},
			{point: grid.Pt(0, 0), offset: land.Coords{X: 1}},
			{point: grid.Pt(0, last), offset: land.Coords{X: 1, Y: -1}},
		},
		{ // north-east vertex
			{point: grid.Pt(last, last), offset: land.Coords{}},
			{point: grid.Pt(last, 0), offset: land.Coords{Y: 1}},
			{point: grid.Pt(0, last), offset: land.Coords{X: 1}},
			{point: grid.Pt(0, 0), offset: land.Coords{X: 1, Y: 1}},
		},
		{ // north-west vertex
			{point: grid.Pt(0, last), offset: land.Coords{}},
			{point: grid.Pt(0, 0), offset: land.Coords{Y: 1}},
			{point: grid.Pt(last, last), offset: land.Coords{X: -1}},
			{point: grid.Pt(last, 0), offset: land.Coords{X: -1, Y: 1}},
		},
	}
}

// repairEdge averages the border rows or columns of an adjacent cell
// pair. Corner vertices must already agree.
func repairEdge(landmass *merge.LandmassDiff, pair cellPair) int {
	lhsMap := heightMapAt(landmass, pair.lhs, land.Coords{})
	rhsMap := heightMapAt(landmass, pair.rhs, land.Coords{})
	if lhsMap == nil || rhsMap == nil {
		return 0
	}

	side := lhsMap.Side()
	last := side - 1

	repaired := 0
	if pair.lhs.X == pair.rhs.X {
		// Vertical neighbors: lhs's top row meets rhs's bottom row.
		for x := 0; x < side; x++ {
			repaired += repairVertexPair(lhsMap, rhsMap, grid.Pt(x, last), grid.Pt(x, 0), x, last)
		}
	} else {
		for y := 0; y < side; y++ {
			repaired += repairVertexPair(lhsMap, rhsMap, grid.Pt(last, y), grid.Pt(0, y), y, last)
		}
	}

	if repaired > 0 {
		logger.Debug("repaired edge seam",
			zap.String("lhs", pair.lhs.String()),
			zap.String("rhs", pair.rhs.String()),
			zap.Int("vertices", repaired))
	}

	return repaired
}

func repairVertexPair(lhsMap, rhsMap *merge.HeightMap, lhsPoint, rhsPoint grid.Point, index, last int) int {
	lhsValue := lhsMap.Value(lhsPoint)
	rhsValue := rhsMap.Value(rhsPoint)
	if lhsValue == rhsValue {
		return 0
	}

	if index == 0 || index == last {
		panic("repair: corner seam survived the corner pass")
	}

	average := (lhsValue + rhsValue) / 2
	lhsMap.SetValue(lhsPoint, average)
	rhsMap.SetValue(rhsPoint, average)
	return 1
}

func heightMapAt(landmass *merge.LandmassDiff, coords, offset land.Coords) *merge.HeightMap {
	cell := landmass.Get(land.Coords{X: coords.X + offset.X, Y: coords.Y + offset.Y})
	if cell == nil {
		return nil
	}
	return cell.HeightMap
}

// heightSide returns the elevation grid side used around coords,
// taken from the first neighboring cell that has a height map.
func heightSide(landmass *merge.LandmassDiff, coords land.Coords) int {
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			if m := heightMapAt(landmass, coords, land.Coords{X: dx, Y: dy}); m != nil {
				return m.Side()
			}
		}
	}
	return 65
}
