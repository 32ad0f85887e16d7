package catalog

// Thresholds is the quality bar a board must meet to be surfaced by
// search. A zero value disables that dimension.
type Thresholds struct {
	MinViews  int
	MinSounds int
}

// DefaultThresholds filters out brand-new and incomplete boards.
func DefaultThresholds() Thresholds {
	return Thresholds{MinViews: 10, MinSounds: 3}
}

// Passes reports whether the board meets both thresholds. Comparisons
// are inclusive: a board at exactly the threshold passes.
func (t Thresholds) Passes(b BoardSummary) bool {
	if t.MinViews > 0 && b.ViewCount < t.MinViews {
		return false
	}
	if t.MinSounds > 0 && b.SoundCount < t.MinSounds {
		return false
	}
	return true
}

// Evaluation records one filtering decision, including which threshold
// failed. Callers render or discard these; the predicate itself has no
// mode-dependent behavior.
type Evaluation struct {
	Summary         BoardSummary
	Passed          bool
	FailedMinViews  bool
	FailedMinSounds bool
}

// Evaluate applies the thresholds to a board and reports the decision.
func (t Thresholds) Evaluate(b BoardSummary) Evaluation {
	ev := Evaluation{Summary: b, Passed: true}
	if t.MinViews > 0 && b.ViewCount < t.MinViews {
		ev.Passed = false
		ev.FailedMinViews = true
	}
	if t.MinSounds > 0 && b.SoundCount < t.MinSounds {
		ev.Passed = false
		ev.FailedMinSounds = true
	}
	return ev
}
