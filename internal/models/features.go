package models

import (
	"fmt"
	"math"
)

// FeatureSchemaVersion tags the feature layout an ensemble was trained with.
// Bump it whenever feature names, grouping, or normalization bounds change,
// so persisted models cannot silently be fed a different layout.
const FeatureSchemaVersion = 1

// FeatureVector maps feature names to normalized numeric values. Values are
// always finite; vectors containing NaN or Inf are rejected before training.
type FeatureVector map[string]float64

// Feature names, grouped the way the extractor computes them. The order of
// FeatureSchema is the canonical enumeration order used by tree building.
const (
	// Recent form (last-10-match aggregates), one set per side.
	FeatHomeFormWinRate   = "home_form_win_rate"
	FeatHomeFormDrawRate  = "home_form_draw_rate"
	FeatHomeFormGoalsFor  = "home_form_goals_for"
	FeatHomeFormGoalsAg   = "home_form_goals_against"
	FeatHomeFormPoints    = "home_form_points"
	FeatAwayFormWinRate   = "away_form_win_rate"
	FeatAwayFormDrawRate  = "away_form_draw_rate"
	FeatAwayFormGoalsFor  = "away_form_goals_for"
	FeatAwayFormGoalsAg   = "away_form_goals_against"
	FeatAwayFormPoints    = "away_form_points"

	// Season-to-date aggregates.
	FeatHomeSeasonWinRate  = "home_season_win_rate"
	FeatHomeSeasonGoalDiff = "home_season_goal_diff"
	FeatHomeSeasonPoints   = "home_season_points"
	FeatAwaySeasonWinRate  = "away_season_win_rate"
	FeatAwaySeasonGoalDiff = "away_season_goal_diff"
	FeatAwaySeasonPoints   = "away_season_points"

	// Form momentum: recent point rate minus older point rate.
	FeatHomeMomentum = "home_momentum"
	FeatAwayMomentum = "away_momentum"

	// Head-to-head history between the two specific teams.
	FeatH2HHomeWinRate = "h2h_home_win_rate"
	FeatH2HDrawRate    = "h2h_draw_rate"
	FeatH2HGoalDiff    = "h2h_goal_diff"

	// Match context.
	FeatCompetitionTier = "competition_tier"
	FeatSeasonProgress  = "season_progress"
	FeatHomeRestDays    = "home_rest_days"
	FeatAwayRestDays    = "away_rest_days"
)

// FeatureSchema is the fixed, ordered list of feature names every vector
// carries. Tree building enumerates candidate split features in exactly this
// order, which is what makes impurity tie-breaking deterministic.
var FeatureSchema = []string{
	FeatHomeFormWinRate, FeatHomeFormDrawRate, FeatHomeFormGoalsFor,
	FeatHomeFormGoalsAg, FeatHomeFormPoints,
	FeatAwayFormWinRate, FeatAwayFormDrawRate, FeatAwayFormGoalsFor,
	FeatAwayFormGoalsAg, FeatAwayFormPoints,
	FeatHomeSeasonWinRate, FeatHomeSeasonGoalDiff, FeatHomeSeasonPoints,
	FeatAwaySeasonWinRate, FeatAwaySeasonGoalDiff, FeatAwaySeasonPoints,
	FeatHomeMomentum, FeatAwayMomentum,
	FeatH2HHomeWinRate, FeatH2HDrawRate, FeatH2HGoalDiff,
	FeatCompetitionTier, FeatSeasonProgress,
	FeatHomeRestDays, FeatAwayRestDays,
}

// Validate checks that the vector carries the full schema and only finite
// values.
func (fv FeatureVector) Validate() error {
	for _, name := range FeatureSchema {
		v, ok := fv[name]
		if !ok {
			return fmt.Errorf("%w: missing feature %q", ErrFeatureGeneration, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %q is not finite", ErrFeatureGeneration, name)
		}
	}
	return nil
}

// ZeroFeatureVector returns a vector with every schema feature set to zero.
// Used when a team has too little history for a feature group.
func ZeroFeatureVector() FeatureVector {
	fv := make(FeatureVector, len(FeatureSchema))
	for _, name := range FeatureSchema {
		fv[name] = 0
	}
	return fv
}

// LabeledSample pairs a feature vector with the observed match outcome. It is
// the unit of training input.
type LabeledSample struct {
	MatchID  int64         `json:"match_id"`
	Features FeatureVector `json:"features"`
	Label    Outcome       `json:"label"`
}
