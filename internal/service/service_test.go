package service

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/store"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// memoryRepo is an in-memory MatchRepository with the same ordering and
// cut-off contracts as the Postgres implementation.
type memoryRepo struct {
	mu      sync.RWMutex
	matches map[int64]models.Match
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{matches: make(map[int64]models.Match)}
}

func (r *memoryRepo) add(matches ...models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.matches[m.ID] = m
	}
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %d", models.ErrNotFound, id)
	}
	return &m, nil
}

func (r *memoryRepo) collect(keep func(*models.Match) bool) []models.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Match
	for _, m := range r.matches {
		m := m
		if keep(&m) {
			out = append(out, m)
		}
	}
	return out
}

func (r *memoryRepo) ListFinished(_ context.Context, filter models.DataFilter) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		if !m.IsFinished() {
			return false
		}
		if filter.Competition != "" && m.Competition != filter.Competition {
			return false
		}
		if filter.Season != "" && m.Season != filter.Season {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UTCDate.Equal(out[j].UTCDate) {
			return out[i].UTCDate.Before(out[j].UTCDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func sortRecentFirst(out []models.Match) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UTCDate.Equal(out[j].UTCDate) {
			return out[i].UTCDate.After(out[j].UTCDate)
		}
		return out[i].ID > out[j].ID
	})
}

func (r *memoryRepo) ListTeamMatches(_ context.Context, teamID int64, before time.Time, limit int) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamID) && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) ListTeamSeasonMatches(_ context.Context, teamID int64, competition, season string, before time.Time) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamID) && m.Competition == competition &&
			m.Season == season && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	return out, nil
}

func (r *memoryRepo) ListHeadToHead(_ context.Context, teamA, teamB int64, before time.Time, limit int) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamA) && m.Involves(teamB) && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) Upsert(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[match.ID] = *match
	return nil
}

// seedSeason fills the repository with a synthetic league season: teams of
// differing strength playing weekly rounds with seeded, strength-biased
// scores.
func seedSeason(repo *memoryRepo, teams int, rounds int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	strength := make([]float64, teams)
	for i := range strength {
		strength[i] = rng.Float64()
	}

	start := time.Date(2024, 8, 10, 15, 0, 0, 0, time.UTC)
	id := int64(1)
	for round := 0; round < rounds; round++ {
		kickoff := start.AddDate(0, 0, round*7)
		order := rng.Perm(teams)
		for i := 0; i+1 < teams; i += 2 {
			home := int64(order[i] + 1)
			away := int64(order[i+1] + 1)

			homeGoals := biasedGoals(rng, strength[order[i]]+0.15)
			awayGoals := biasedGoals(rng, strength[order[i+1]])
			var winner models.Outcome
			switch {
			case homeGoals > awayGoals:
				winner = models.OutcomeHome
			case homeGoals < awayGoals:
				winner = models.OutcomeAway
			default:
				winner = models.OutcomeDraw
			}

			hg, ag := homeGoals, awayGoals
			repo.add(models.Match{
				ID:          id,
				Competition: "PL",
				Season:      "2024-2025",
				Matchday:    round + 1,
				UTCDate:     kickoff,
				Status:      models.StatusFinished,
				HomeTeamID:  home,
				AwayTeamID:  away,
				HomeTeam:    fmt.Sprintf("Team %d", home),
				AwayTeam:    fmt.Sprintf("Team %d", away),
				HomeScore:   &hg,
				AwayScore:   &ag,
				Winner:      &winner,
			})
			id++
		}
	}
}

func biasedGoals(rng *rand.Rand, strength float64) int {
	goals := 0
	for i := 0; i < 4; i++ {
		if rng.Float64() < strength*0.6 {
			goals++
		}
	}
	return goals
}

type fixture struct {
	repo       *memoryRepo
	extractor  *features.Extractor
	modelStore *store.ModelStore
	history    *store.TrainingHistory
	training   *TrainingService
	prediction *PredictionService
}

func newFixture(t *testing.T, minSamples int) *fixture {
	t.Helper()

	repo := newMemoryRepo()
	logger := testLogger()
	extractor := features.NewExtractor(repo, features.NewCache(time.Minute), logger)

	dir := t.TempDir()
	modelStore, err := store.NewModelStore(filepath.Join(dir, "models"), logger)
	if err != nil {
		t.Fatalf("NewModelStore: %v", err)
	}
	history, err := store.NewTrainingHistory(filepath.Join(dir, "history.jsonl"), logger)
	if err != nil {
		t.Fatalf("NewTrainingHistory: %v", err)
	}

	return &fixture{
		repo:       repo,
		extractor:  extractor,
		modelStore: modelStore,
		history:    history,
		training:   NewTrainingService(repo, extractor, modelStore, history, logger, minSamples),
		prediction: NewPredictionService(repo, extractor, modelStore, history, logger),
	}
}

func defaultTrainOptions() models.TrainOptions {
	return models.TrainOptions{
		ModelTypes:   []string{models.ModelTypeRandomForest},
		Folds:        3,
		TestFraction: 0.2,
		Seed:         42,
		Budget:       5 * time.Minute,
	}
}
