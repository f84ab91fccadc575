package repair

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/merge"
)

// Clean runs the final pass before export: every cell is re-checked
// for seams, which must find nothing left to repair, and cells with
// no remaining differences are dropped.
func Clean(landmass *merge.LandmassDiff) {
	for coords := range landmass.Sorted() {
		landmass.MarkPossibleSeam(coords)
	}

	if n := RepairSeams(landmass); n != 0 {
		panic(fmt.Sprintf("repair: final pass still found %d seam vertices", n))
	}

	var unmodified []land.Coords
	for coords, cell := range landmass.Sorted() {
		if !cell.IsModified() {
			unmodified = append(unmodified, coords)
		}
	}
	for _, coords := range unmodified {
		delete(landmass.Cells, coords)
	}

	logger.Debug("removed unmodified cells", zap.Int("count", len(unmodified)))
}
