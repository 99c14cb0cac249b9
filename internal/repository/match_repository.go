package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ElMALIHI/footballai/internal/database"
	"github.com/ElMALIHI/footballai/internal/models"
)

const matchColumns = `
	id, competition, season, matchday, utc_date, status,
	home_team_id, away_team_id, home_team, away_team,
	home_score, away_score, winner,
	home_odds, draw_odds, away_odds,
	created_at, updated_at
`

// PostgresMatchRepository implements MatchRepository for PostgreSQL.
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository.
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// GetByID retrieves a match by its provider ID.
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// ListFinished returns finished matches passing the data-selection filter,
// ordered by kickoff time ascending. The min-matches-per-team constraint is
// applied by excluding matches where either side has fewer finished matches
// than the threshold inside the filtered window.
func (r *PostgresMatchRepository) ListFinished(ctx context.Context, filter models.DataFilter) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE status = $1`
	args := []interface{}{models.StatusFinished}

	if filter.Competition != "" {
		args = append(args, filter.Competition)
		query += fmt.Sprintf(" AND competition = $%d", len(args))
	}
	if filter.Season != "" {
		args = append(args, filter.Season)
		query += fmt.Sprintf(" AND season = $%d", len(args))
	}
	if filter.Lookback > 0 {
		args = append(args, time.Now().UTC().Add(-filter.Lookback))
		query += fmt.Sprintf(" AND utc_date >= $%d", len(args))
	}
	query += " ORDER BY utc_date ASC, id ASC"

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished matches: %w", err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}

	if filter.MinTeamMatches > 1 {
		matches = filterByTeamMatchCount(matches, filter.MinTeamMatches)
	}
	return matches, nil
}

// filterByTeamMatchCount drops matches where either team appears fewer than
// min times in the selected window.
func filterByTeamMatchCount(matches []models.Match, min int) []models.Match {
	counts := make(map[int64]int, len(matches)*2)
	for i := range matches {
		counts[matches[i].HomeTeamID]++
		counts[matches[i].AwayTeamID]++
	}

	out := matches[:0]
	for i := range matches {
		if counts[matches[i].HomeTeamID] >= min && counts[matches[i].AwayTeamID] >= min {
			out = append(out, matches[i])
		}
	}
	return out
}

// ListTeamMatches returns finished matches of a team strictly before the
// given time, most recent first.
func (r *PostgresMatchRepository) ListTeamMatches(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND (home_team_id = $2 OR away_team_id = $2) AND utc_date < $3
		ORDER BY utc_date DESC, id DESC
		LIMIT $4
	`

	rows, err := r.db.GetPool().Query(ctx, query, models.StatusFinished, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query team matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// ListTeamSeasonMatches returns finished matches of a team within one
// competition season strictly before the given time.
func (r *PostgresMatchRepository) ListTeamSeasonMatches(ctx context.Context, teamID int64, competition, season string, before time.Time) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND (home_team_id = $2 OR away_team_id = $2)
		  AND competition = $3 AND season = $4 AND utc_date < $5
		ORDER BY utc_date DESC, id DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, models.StatusFinished, teamID, competition, season, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query season matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// ListHeadToHead returns finished meetings between the two teams strictly
// before the given time, most recent first.
func (r *PostgresMatchRepository) ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND utc_date < $2
		  AND ((home_team_id = $3 AND away_team_id = $4) OR (home_team_id = $4 AND away_team_id = $3))
		ORDER BY utc_date DESC, id DESC
		LIMIT $5
	`

	rows, err := r.db.GetPool().Query(ctx, query, models.StatusFinished, before, teamA, teamB, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query head-to-head matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// Upsert inserts or updates a match record keyed by provider ID.
func (r *PostgresMatchRepository) Upsert(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			id, competition, season, matchday, utc_date, status,
			home_team_id, away_team_id, home_team, away_team,
			home_score, away_score, winner,
			home_odds, draw_odds, away_odds, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			matchday = EXCLUDED.matchday,
			utc_date = EXCLUDED.utc_date,
			status = EXCLUDED.status,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			winner = EXCLUDED.winner,
			home_odds = EXCLUDED.home_odds,
			draw_odds = EXCLUDED.draw_odds,
			away_odds = EXCLUDED.away_odds,
			updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		match.ID, match.Competition, match.Season, match.Matchday, match.UTCDate, match.Status,
		match.HomeTeamID, match.AwayTeamID, match.HomeTeam, match.AwayTeam,
		match.HomeScore, match.AwayScore, match.Winner,
		match.HomeOdds, match.DrawOdds, match.AwayOdds,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID, &match.Competition, &match.Season, &match.Matchday, &match.UTCDate, &match.Status,
		&match.HomeTeamID, &match.AwayTeamID, &match.HomeTeam, &match.AwayTeam,
		&match.HomeScore, &match.AwayScore, &match.Winner,
		&match.HomeOdds, &match.DrawOdds, &match.AwayOdds,
		&match.CreatedAt, &match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func scanMatches(rows pgx.Rows) ([]models.Match, error) {
	var matches []models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}
