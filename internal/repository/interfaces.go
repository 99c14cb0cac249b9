// Package repository provides data access for historical match records.
package repository

import (
	"context"
	"time"

	"github.com/ElMALIHI/footballai/internal/models"
)

// MatchRepository is the persistence interface for historical matches. The
// prediction core only reads; ingestion writes.
type MatchRepository interface {
	// GetByID retrieves a single match. Returns models.ErrNotFound when
	// the match does not exist.
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// ListFinished returns finished matches that pass the filter, ordered
	// by kickoff time ascending.
	ListFinished(ctx context.Context, filter models.DataFilter) ([]models.Match, error)

	// ListTeamMatches returns finished matches of a team strictly before
	// the given time, most recent first, capped at limit.
	ListTeamMatches(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Match, error)

	// ListTeamSeasonMatches returns finished matches of a team within one
	// competition season strictly before the given time.
	ListTeamSeasonMatches(ctx context.Context, teamID int64, competition, season string, before time.Time) ([]models.Match, error)

	// ListHeadToHead returns finished meetings between two teams strictly
	// before the given time, most recent first, capped at limit.
	ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]models.Match, error)

	// Upsert inserts or updates a match record by provider ID.
	Upsert(ctx context.Context, match *models.Match) error
}
