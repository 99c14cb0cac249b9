package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus values as delivered by the data provider
const (
	StatusScheduled = "SCHEDULED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// Match represents a historical or upcoming football match. The record is
// owned by the external data store; the prediction core only reads it.
type Match struct {
	ID          int64      `db:"id" json:"id" validate:"required"`
	Competition string     `db:"competition" json:"competition" validate:"required"`
	Season      string     `db:"season" json:"season" validate:"required"`
	Matchday    int        `db:"matchday" json:"matchday"`
	UTCDate     time.Time  `db:"utc_date" json:"utc_date" validate:"required"`
	Status      string     `db:"status" json:"status" validate:"required"`
	HomeTeamID  int64      `db:"home_team_id" json:"home_team_id" validate:"required"`
	AwayTeamID  int64      `db:"away_team_id" json:"away_team_id" validate:"required"`
	HomeTeam    string     `db:"home_team" json:"home_team"`
	AwayTeam    string     `db:"away_team" json:"away_team"`
	HomeScore   *int       `db:"home_score" json:"home_score,omitempty"`
	AwayScore   *int       `db:"away_score" json:"away_score,omitempty"`
	Winner      *Outcome   `db:"winner" json:"winner,omitempty"`

	// Bookmaker odds captured at ingestion time, if the provider exposes
	// them. Not used by the prediction core.
	HomeOdds *decimal.Decimal `db:"home_odds" json:"home_odds,omitempty"`
	DrawOdds *decimal.Decimal `db:"draw_odds" json:"draw_odds,omitempty"`
	AwayOdds *decimal.Decimal `db:"away_odds" json:"away_odds,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsFinished reports whether the match has a final result.
func (m *Match) IsFinished() bool {
	return m.Status == StatusFinished && m.Winner != nil
}

// Involves reports whether the given team played in this match.
func (m *Match) Involves(teamID int64) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

// OutcomeFor returns the match result from the perspective of teamID:
// points won (3/1/0) and goals for/against. The boolean is false when the
// match is not finished or the team did not play in it.
func (m *Match) OutcomeFor(teamID int64) (points int, goalsFor, goalsAgainst int, ok bool) {
	if !m.IsFinished() || !m.Involves(teamID) || m.HomeScore == nil || m.AwayScore == nil {
		return 0, 0, 0, false
	}

	if m.HomeTeamID == teamID {
		goalsFor, goalsAgainst = *m.HomeScore, *m.AwayScore
	} else {
		goalsFor, goalsAgainst = *m.AwayScore, *m.HomeScore
	}

	switch {
	case goalsFor > goalsAgainst:
		points = 3
	case goalsFor == goalsAgainst:
		points = 1
	}
	return points, goalsFor, goalsAgainst, true
}
