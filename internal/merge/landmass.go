package merge

import (
	"iter"
	"slices"

	"github.com/Faultbox/mergedlands/internal/land"
)

// LandmassDiff is a whole landmass's worth of cell diffs, plus the
// set of cells whose elevation was touched since the last seam-repair
// pass.
type LandmassDiff struct {
	Plugin string
	Cells  map[land.Coords]*LandscapeDiff

	possibleSeams map[land.Coords]struct{}
}

// NewLandmassDiff returns an empty landmass diff attributed to
// plugin.
func NewLandmassDiff(plugin string) *LandmassDiff {
	return &LandmassDiff{
		Plugin:        plugin,
		Cells:         make(map[land.Coords]*LandscapeDiff),
		possibleSeams: make(map[land.Coords]struct{}),
	}
}

// Get returns the cell diff at coords, or nil.
func (l *LandmassDiff) Get(coords land.Coords) *LandscapeDiff {
	return l.Cells[coords]
}

// Insert stores the cell diff at its own coords.
func (l *LandmassDiff) Insert(d *LandscapeDiff) {
	l.Cells[d.Coords] = d
}

// Sorted iterates the cells in coordinate order, X before Y.
func (l *LandmassDiff) Sorted() iter.Seq2[land.Coords, *LandscapeDiff] {
	coords := make([]land.Coords, 0, len(l.Cells))
	for c := range l.Cells {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, land.Compare)

	return func(yield func(land.Coords, *LandscapeDiff) bool) {
		for _, c := range coords {
			if !yield(c, l.Cells[c]) {
				return
			}
		}
	}
}

// MarkPossibleSeam queues coords for the next seam-repair pass.
func (l *LandmassDiff) MarkPossibleSeam(coords land.Coords) {
	l.possibleSeams[coords] = struct{}{}
}

// PossibleSeams returns the queued cells in coordinate order.
func (l *LandmassDiff) PossibleSeams() []land.Coords {
	coords := make([]land.Coords, 0, len(l.possibleSeams))
	for c := range l.possibleSeams {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, land.Compare)
	return coords
}

// ClearPossibleSeams empties the queue after a repair pass.
func (l *LandmassDiff) ClearPossibleSeams() {
	clear(l.possibleSeams)
}
