// Package datasource fetches match data from external football data
// providers.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DataSource defines the interface for fetching match data from external
// providers.
type DataSource interface {
	// FetchMatches retrieves matches for a competition within the date
	// range, inclusive.
	FetchMatches(ctx context.Context, competition string, dateFrom, dateTo time.Time) ([]MatchData, error)

	// Name returns the name of the data source
	Name() string
}

// MatchData represents normalized match data from any data source.
type MatchData struct {
	SourceID    int64            `json:"source_id"`
	Competition string           `json:"competition"`
	Season      string           `json:"season"`
	Matchday    int              `json:"matchday"`
	UTCDate     time.Time        `json:"utc_date"`
	Status      string           `json:"status"`
	HomeTeamID  int64            `json:"home_team_id"`
	AwayTeamID  int64            `json:"away_team_id"`
	HomeTeam    string           `json:"home_team"`
	AwayTeam    string           `json:"away_team"`
	HomeScore   *int             `json:"home_score,omitempty"`
	AwayScore   *int             `json:"away_score,omitempty"`
	Winner      *string          `json:"winner,omitempty"`
	HomeOdds    *decimal.Decimal `json:"home_odds,omitempty"`
	DrawOdds    *decimal.Decimal `json:"draw_odds,omitempty"`
	AwayOdds    *decimal.Decimal `json:"away_odds,omitempty"`
}

// Common error values for data source operations.
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
)
