// Package merge implements the landmass merge engine: relative
// terrain maps, the conflict classifier, merge strategies, and
// per-cell landscape diffs.
package merge

import "math"

// Conflict is the severity of a disagreement between two edits of the
// same vertex.
type Conflict int

const (
	NoConflict Conflict = iota
	MinorConflict
	MajorConflict
)

func (c Conflict) String() string {
	switch c {
	case NoConflict:
		return "none"
	case MinorConflict:
		return "minor"
	case MajorConflict:
		return "major"
	}
	return "unknown"
}

// worse returns the more severe of two conflicts.
func (c Conflict) worse(other Conflict) Conflict {
	if other > c {
		return other
	}
	return c
}

// ConflictParams controls the minor/major classification threshold.
// The defaults are chosen to keep minor conflicts unnoticeable
// in-game.
type ConflictParams struct {
	ThresholdPct float32
	ThresholdMin float32
	ThresholdMax float32
}

// DefaultConflictParams returns the stock classification thresholds.
func DefaultConflictParams() ConflictParams {
	return ConflictParams{
		ThresholdPct: 0.3,
		ThresholdMin: 10,
		ThresholdMax: 64,
	}
}

// ResolveScalar blends two disagreeing edits into one value and
// classifies the disagreement. Equal inputs are not a conflict. The
// blend is an asymmetric weighted average that favors the larger
// edit; the result truncates toward zero.
func ResolveScalar(lhs, rhs int32, params ConflictParams) (int32, Conflict) {
	if lhs == rhs {
		return lhs, NoConflict
	}

	lf := float64(lhs)
	rf := float64(rhs)

	lhsWeight := math.Abs(lf) / (math.Abs(lf) + math.Abs(rf))
	rhsWeight := 1 - lhsWeight
	lhsPow := math.Pow(lhsWeight, 1.5)
	rhsPow := math.Pow(rhsWeight, 1.5)
	lhsWeight = lhsPow / (lhsPow + rhsPow)
	rhsWeight = 1 - lhsWeight

	average := lhsWeight*lf + rhsWeight*rf
	minimum := math.Min(lf, rf)

	threshold := math.Max(float64(params.ThresholdPct)*minimum, float64(params.ThresholdMin))
	threshold = math.Min(threshold, float64(params.ThresholdMax))

	if math.Abs(minimum-average) >= threshold {
		return int32(average), MajorConflict
	}
	return int32(average), MinorConflict
}
