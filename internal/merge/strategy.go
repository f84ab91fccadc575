package merge

import "fmt"

// Strategy selects how two overlapping edits of the same channel
// combine. Auto defers to the channel's default.
type Strategy int

const (
	Auto Strategy = iota
	Resolve
	Overwrite
	Ignore
)

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case Resolve:
		return "resolve"
	case Overwrite:
		return "overwrite"
	case Ignore:
		return "ignore"
	}
	return "unknown"
}

// ParseStrategy parses the sidecar spelling of a strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "resolve":
		return Resolve, nil
	case "overwrite":
		return Overwrite, nil
	case "ignore":
		return Ignore, nil
	}
	return Auto, fmt.Errorf("unknown merge strategy %q", s)
}

// Apply combines old and new channel maps under a concrete strategy.
// A nil side degenerates to the present side; both nil returns nil.
// The result never aliases either input.
func Apply[V, D comparable, O Ops[V, D]](strategy Strategy, old, new *Relative[V, D, O], params ConflictParams) *Relative[V, D, O] {
	switch {
	case old == nil && new == nil:
		return nil
	case old == nil:
		return new.Clone()
	case new == nil:
		return old.Clone()
	}

	switch strategy {
	case Resolve:
		return resolve(old, new, params)
	case Overwrite:
		return overwrite(old, new)
	case Ignore:
		return old.Clone()
	}
	panic(fmt.Sprintf("merge: cannot apply strategy %v", strategy))
}

// resolve keeps single-sided edits and blends double-sided ones with
// the conflict classifier. Identical edits keep the old side.
func resolve[V, D comparable, O Ops[V, D]](old, new *Relative[V, D, O], params ConflictParams) *Relative[V, D, O] {
	var ops O
	out := old.Clone()

	for p := range out.Points() {
		oldDiff := old.HasDifference(p)
		newDiff := new.HasDifference(p)

		var delta D
		switch {
		case oldDiff && !newDiff:
			delta = old.Difference(p)
		case !oldDiff && newDiff:
			delta = new.Difference(p)
		case oldDiff && newDiff:
			delta, _ = ops.Resolve(old.Difference(p), new.Difference(p), params)
		}

		out.SetDifference(p, delta)
	}

	return out
}

// overwrite keeps single-sided edits and takes the new side when both
// edited.
func overwrite[V, D comparable, O Ops[V, D]](old, new *Relative[V, D, O]) *Relative[V, D, O] {
	out := old.Clone()

	for p := range out.Points() {
		oldDiff := old.HasDifference(p)
		newDiff := new.HasDifference(p)

		var delta D
		switch {
		case oldDiff && !newDiff:
			delta = old.Difference(p)
		case newDiff:
			delta = new.Difference(p)
		}

		out.SetDifference(p, delta)
	}

	return out
}
