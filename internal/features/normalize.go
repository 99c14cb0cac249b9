package features

// Fixed normalization bounds per feature group. Values outside a bound are
// clamped rather than extrapolated, so every feature lands in [0,1] (or
// [-1,1] for differential features).
const (
	// maxGoalsPerMatch bounds per-match goal averages.
	maxGoalsPerMatch = 5.0
	// maxPointsPerMatch is the league points ceiling for a single match.
	maxPointsPerMatch = 3.0
	// maxGoalDiff bounds per-match goal-difference averages.
	maxGoalDiff = 5.0
	// maxRestDays bounds the days-since-last-match feature.
	maxRestDays = 30.0
	// seasonMatchdays is the nominal length of a league season.
	seasonMatchdays = 38.0
)

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// unit maps v/bound into [0,1] with clamping.
func unit(v, bound float64) float64 {
	return clamp(v/bound, 0, 1)
}

// symmetric maps v/bound into [-1,1] with clamping, for differential
// features.
func symmetric(v, bound float64) float64 {
	return clamp(v/bound, -1, 1)
}
