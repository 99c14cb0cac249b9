// Package features derives normalized numeric feature vectors from
// historical match records. Extraction is leakage-safe: every vector is
// computed from matches strictly before the as-of timestamp.
package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/models"
)

// Perspective labels used for cache keys.
const (
	PerspectiveHome = "home"
	PerspectiveAway = "away"
)

// Sizes of the history windows each feature group looks at.
const (
	formWindow     = 10
	momentumWindow = 5
	h2hWindow      = 10
)

// DefaultMinMatches is the minimum history a feature group needs before it
// emits real values instead of the zero-valued default set.
const DefaultMinMatches = 3

// MatchSource is the read-only view of the historical match store the
// extractor consumes.
type MatchSource interface {
	// ListTeamMatches returns finished matches of a team strictly before
	// the given time, most recent first, capped at limit.
	ListTeamMatches(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Match, error)

	// ListTeamSeasonMatches returns finished matches of a team within one
	// competition season strictly before the given time.
	ListTeamSeasonMatches(ctx context.Context, teamID int64, competition, season string, before time.Time) ([]models.Match, error)

	// ListHeadToHead returns finished meetings between the two teams
	// strictly before the given time, most recent first, capped at limit.
	ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]models.Match, error)
}

// Extractor converts a match's historical context into a fixed-width
// normalized feature vector.
type Extractor struct {
	source     MatchSource
	cache      *Cache
	logger     *logrus.Logger
	minMatches int
}

// NewExtractor creates a feature extractor. The cache is optional; pass nil
// to disable caching (useful in tests and in backfills where every as-of
// differs).
func NewExtractor(source MatchSource, cache *Cache, logger *logrus.Logger) *Extractor {
	return &Extractor{
		source:     source,
		cache:      cache,
		logger:     logger,
		minMatches: DefaultMinMatches,
	}
}

// ForMatch produces the feature vector for a match using only data strictly
// before asOf. For finished matches asOf is normally the kickoff time; for
// upcoming matches it is the prediction time.
func (e *Extractor) ForMatch(ctx context.Context, match *models.Match, asOf time.Time) (models.FeatureVector, error) {
	start := time.Now()

	home, err := e.teamFeatures(ctx, match, match.HomeTeamID, PerspectiveHome, asOf)
	if err != nil {
		ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: home team %d: %v", models.ErrFeatureGeneration, match.HomeTeamID, err)
	}

	away, err := e.teamFeatures(ctx, match, match.AwayTeamID, PerspectiveAway, asOf)
	if err != nil {
		ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: away team %d: %v", models.ErrFeatureGeneration, match.AwayTeamID, err)
	}

	fv := models.ZeroFeatureVector()
	for name, value := range home {
		fv[name] = value
	}
	for name, value := range away {
		fv[name] = value
	}

	if err := e.headToHead(ctx, match, asOf, fv); err != nil {
		ExtractionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	contextFeatures(match, fv)

	if err := fv.Validate(); err != nil {
		ExtractionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	ExtractionsTotal.WithLabelValues("ok").Inc()
	ExtractionDuration.Observe(time.Since(start).Seconds())
	return fv, nil
}

// teamFeatures computes the recent-form, season, momentum, and rest-day
// features for one side, consulting the TTL cache first.
func (e *Extractor) teamFeatures(ctx context.Context, match *models.Match, teamID int64, perspective string, asOf time.Time) (models.FeatureVector, error) {
	key := CacheKey{
		TeamID:      teamID,
		Season:      match.Season,
		Perspective: perspective,
		AsOfDay:     asOf.UTC().Format("2006-01-02"),
	}
	if e.cache != nil {
		if cached := e.cache.Get(key); cached != nil {
			return cached, nil
		}
	}

	recent, err := e.source.ListTeamMatches(ctx, teamID, asOf, formWindow)
	if err != nil {
		return nil, err
	}
	seasonMatches, err := e.source.ListTeamSeasonMatches(ctx, teamID, match.Competition, match.Season, asOf)
	if err != nil {
		return nil, err
	}

	fv := make(models.FeatureVector, 12)
	e.formFeatures(fv, perspective, teamID, recent)
	e.seasonFeatures(fv, perspective, teamID, seasonMatches)
	e.momentumFeature(fv, perspective, teamID, recent)
	e.restDaysFeature(fv, perspective, recent, asOf)

	if e.cache != nil {
		e.cache.Set(key, fv)
	}
	return fv, nil
}

type aggregate struct {
	matches      int
	wins, draws  int
	goalsFor     int
	goalsAgainst int
	points       int
}

func aggregateMatches(teamID int64, matches []models.Match) aggregate {
	var agg aggregate
	for i := range matches {
		points, gf, ga, ok := matches[i].OutcomeFor(teamID)
		if !ok {
			continue
		}
		agg.matches++
		agg.points += points
		agg.goalsFor += gf
		agg.goalsAgainst += ga
		switch points {
		case 3:
			agg.wins++
		case 1:
			agg.draws++
		}
	}
	return agg
}

func (e *Extractor) formFeatures(fv models.FeatureVector, perspective string, teamID int64, recent []models.Match) {
	agg := aggregateMatches(teamID, recent)
	if agg.matches < e.minMatches {
		// Not enough history: the zero defaults from the base vector
		// stand, keeping the schema fixed-width.
		fv[prefixed(perspective, "form_win_rate")] = 0
		fv[prefixed(perspective, "form_draw_rate")] = 0
		fv[prefixed(perspective, "form_goals_for")] = 0
		fv[prefixed(perspective, "form_goals_against")] = 0
		fv[prefixed(perspective, "form_points")] = 0
		return
	}

	n := float64(agg.matches)
	fv[prefixed(perspective, "form_win_rate")] = float64(agg.wins) / n
	fv[prefixed(perspective, "form_draw_rate")] = float64(agg.draws) / n
	fv[prefixed(perspective, "form_goals_for")] = unit(float64(agg.goalsFor)/n, maxGoalsPerMatch)
	fv[prefixed(perspective, "form_goals_against")] = unit(float64(agg.goalsAgainst)/n, maxGoalsPerMatch)
	fv[prefixed(perspective, "form_points")] = unit(float64(agg.points)/n, maxPointsPerMatch)
}

func (e *Extractor) seasonFeatures(fv models.FeatureVector, perspective string, teamID int64, matches []models.Match) {
	agg := aggregateMatches(teamID, matches)
	if agg.matches < e.minMatches {
		fv[prefixed(perspective, "season_win_rate")] = 0
		fv[prefixed(perspective, "season_goal_diff")] = 0
		fv[prefixed(perspective, "season_points")] = 0
		return
	}

	n := float64(agg.matches)
	fv[prefixed(perspective, "season_win_rate")] = float64(agg.wins) / n
	fv[prefixed(perspective, "season_goal_diff")] = symmetric(float64(agg.goalsFor-agg.goalsAgainst)/n, maxGoalDiff)
	fv[prefixed(perspective, "season_points")] = unit(float64(agg.points)/n, maxPointsPerMatch)
}

// momentumFeature is the point-rate differential between the most recent
// window and the one before it, mapped into [-1,1].
func (e *Extractor) momentumFeature(fv models.FeatureVector, perspective string, teamID int64, recent []models.Match) {
	name := prefixed(perspective, "momentum")
	if len(recent) < 2*e.minMatches {
		fv[name] = 0
		return
	}

	split := momentumWindow
	if split > len(recent)/2 {
		split = len(recent) / 2
	}
	// recent is ordered most recent first.
	newer := aggregateMatches(teamID, recent[:split])
	older := aggregateMatches(teamID, recent[split:])
	if newer.matches == 0 || older.matches == 0 {
		fv[name] = 0
		return
	}

	newerRate := float64(newer.points) / float64(newer.matches)
	olderRate := float64(older.points) / float64(older.matches)
	fv[name] = symmetric(newerRate-olderRate, maxPointsPerMatch)
}

func (e *Extractor) restDaysFeature(fv models.FeatureVector, perspective string, recent []models.Match, asOf time.Time) {
	name := prefixed(perspective, "rest_days")
	if len(recent) == 0 {
		fv[name] = 0
		return
	}
	days := asOf.Sub(recent[0].UTCDate).Hours() / 24
	fv[name] = unit(days, maxRestDays)
}

// headToHead fills the head-to-head group from past meetings of the two
// specific teams, seen from the home side's perspective.
func (e *Extractor) headToHead(ctx context.Context, match *models.Match, asOf time.Time, fv models.FeatureVector) error {
	meetings, err := e.source.ListHeadToHead(ctx, match.HomeTeamID, match.AwayTeamID, asOf, h2hWindow)
	if err != nil {
		return fmt.Errorf("%w: head-to-head %d vs %d: %v",
			models.ErrFeatureGeneration, match.HomeTeamID, match.AwayTeamID, err)
	}

	agg := aggregateMatches(match.HomeTeamID, meetings)
	if agg.matches < e.minMatches {
		fv[models.FeatH2HHomeWinRate] = 0
		fv[models.FeatH2HDrawRate] = 0
		fv[models.FeatH2HGoalDiff] = 0
		return nil
	}

	n := float64(agg.matches)
	fv[models.FeatH2HHomeWinRate] = float64(agg.wins) / n
	fv[models.FeatH2HDrawRate] = float64(agg.draws) / n
	fv[models.FeatH2HGoalDiff] = symmetric(float64(agg.goalsFor-agg.goalsAgainst)/n, maxGoalDiff)
	return nil
}

// contextFeatures fills the competition-tier and timing group.
func contextFeatures(match *models.Match, fv models.FeatureVector) {
	fv[models.FeatCompetitionTier] = competitionTier(match.Competition)
	fv[models.FeatSeasonProgress] = unit(float64(match.Matchday), seasonMatchdays)
}

// competitionTier maps known competition codes to a fixed [0,1] tier value.
// Unknown competitions get the middle tier.
func competitionTier(code string) float64 {
	switch strings.ToUpper(code) {
	case "CL": // UEFA Champions League
		return 1.0
	case "PL", "PD", "SA", "BL1", "FL1": // top-five domestic leagues
		return 0.8
	case "ELC", "DED", "PPL": // second-tier and smaller leagues
		return 0.6
	default:
		return 0.5
	}
}

func prefixed(perspective, name string) string {
	return perspective + "_" + name
}
