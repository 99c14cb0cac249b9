// Package helpers provides shared fixtures for integration tests: an
// in-memory match repository and a synthetic season generator.
package helpers

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
	"github.com/stretchr/testify/require"

	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/store"
)

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewTestStores creates a model store and training history rooted in a
// per-test temporary directory.
func NewTestStores(t *testing.T) (*store.ModelStore, *store.TrainingHistory) {
	t.Helper()

	dir := t.TempDir()
	logger := NewTestLogger()

	modelStore, err := store.NewModelStore(filepath.Join(dir, "models"), logger)
	require.NoError(t, err, "failed to create model store")

	history, err := store.NewTrainingHistory(filepath.Join(dir, "history.jsonl"), logger)
	require.NoError(t, err, "failed to create training history")

	return modelStore, history
}

// MemoryMatchRepository is an in-memory implementation of
// repository.MatchRepository with the same ordering and cut-off contracts as
// the Postgres implementation.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[int64]models.Match
}

// NewMemoryMatchRepository creates an empty in-memory repository.
func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{matches: make(map[int64]models.Match)}
}

// Add stores matches directly, bypassing Upsert.
func (r *MemoryMatchRepository) Add(matches ...models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.matches[m.ID] = m
	}
}

// GetByID retrieves a match by ID.
func (r *MemoryMatchRepository) GetByID(_ context.Context, id int64) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %d", models.ErrNotFound, id)
	}
	return &m, nil
}

func (r *MemoryMatchRepository) collect(keep func(*models.Match) bool) []models.Match {
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

func sortRecentFirst(out []models.Match) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UTCDate.Equal(out[j].UTCDate) {
			return out[i].UTCDate.After(out[j].UTCDate)
		}
		return out[i].ID > out[j].ID
	})
}

// ListFinished returns finished matches passing the filter, kickoff ascending.
func (r *MemoryMatchRepository) ListFinished(_ context.Context, filter models.DataFilter) ([]models.Match, error) {
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

// ListTeamMatches returns a team's finished matches strictly before the
// cut-off, most recent first.
func (r *MemoryMatchRepository) ListTeamMatches(_ context.Context, teamID int64, before time.Time, limit int) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamID) && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListTeamSeasonMatches returns a team's finished matches for one competition
// season strictly before the cut-off.
func (r *MemoryMatchRepository) ListTeamSeasonMatches(_ context.Context, teamID int64, competition, season string, before time.Time) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamID) && m.Competition == competition &&
			m.Season == season && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	return out, nil
}

// ListHeadToHead returns past meetings of the two teams strictly before the
// cut-off, most recent first.
func (r *MemoryMatchRepository) ListHeadToHead(_ context.Context, teamA, teamB int64, before time.Time, limit int) ([]models.Match, error) {
	out := r.collect(func(m *models.Match) bool {
		return m.IsFinished() && m.Involves(teamA) && m.Involves(teamB) && m.UTCDate.Before(before)
	})
	sortRecentFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts or replaces a match by ID.
func (r *MemoryMatchRepository) Upsert(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[match.ID] = *match
	return nil
}

// SeedSeason fills the repository with a synthetic league season: teams of
// differing strength playing weekly rounds with seeded, strength-biased
// scores. Returns the number of matches generated.
func SeedSeason(repo *MemoryMatchRepository, competition string, teams, rounds int, seed int64) int {
	rng := rand.New(rand.NewSource(seed))
	strength := make([]float64, teams)
	for i := range strength {
		strength[i] = rng.Float64()
	}

	start := time.Date(2024, 8, 10, 15, 0, 0, 0, time.UTC)
	id := int64(1)
	count := 0
	for round := 0; round < rounds; round++ {
		kickoff := start.AddDate(0, 0, round*7)
		order := rng.Perm(teams)
		for i := 0; i+1 < teams; i += 2 {
			home := order[i]
			away := order[i+1]
			homeGoals := seededGoals(rng, strength[home]+0.15)
			awayGoals := seededGoals(rng, strength[away])

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
			repo.Add(models.Match{
				ID:          id,
				Competition: competition,
				Season:      "2024-2025",
				Matchday:    round + 1,
				UTCDate:     kickoff,
				Status:      models.StatusFinished,
				HomeTeamID:  int64(home + 1),
				AwayTeamID:  int64(away + 1),
				HomeTeam:    fmt.Sprintf("Team %d", home+1),
				AwayTeam:    fmt.Sprintf("Team %d", away+1),
				HomeScore:   &hg,
				AwayScore:   &ag,
				Winner:      &winner,
			})
			id++
			count++
		}
	}
	return count
}

func seededGoals(rng *rand.Rand, strength float64) int {
	goals := 0
	for i := 0; i < 4; i++ {
		if rng.Float64() < strength*0.6 {
			goals++
		}
	}
	return goals
}
