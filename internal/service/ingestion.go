package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/datasource"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/repository"
)

// SyncMetrics summarizes one sync run.
type SyncMetrics struct {
	Competitions int
	Fetched      int
	Upserted     int
	Errors       int
	Duration     time.Duration
}

// String renders the metrics for log output.
func (m SyncMetrics) String() string {
	return fmt.Sprintf("competitions=%d fetched=%d upserted=%d errors=%d duration=%s",
		m.Competitions, m.Fetched, m.Upserted, m.Errors, m.Duration)
}

// IngestionService pulls matches from the external provider and upserts them
// into the match repository.
type IngestionService struct {
	source  datasource.DataSource
	matches repository.MatchRepository
	logger  *logrus.Logger
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(source datasource.DataSource, matches repository.MatchRepository, logger *logrus.Logger) *IngestionService {
	return &IngestionService{
		source:  source,
		matches: matches,
		logger:  logger,
	}
}

// Sync fetches and stores matches for every competition in the date range.
// A failed competition is counted and logged but does not abort the rest of
// the run; the error of the last failed competition is returned alongside
// the metrics.
func (s *IngestionService) Sync(ctx context.Context, competitions []string, dateFrom, dateTo time.Time) (*SyncMetrics, error) {
	start := time.Now()
	result := &SyncMetrics{Competitions: len(competitions)}
	var lastErr error

	for _, competition := range competitions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fetched, err := s.source.FetchMatches(ctx, competition, dateFrom, dateTo)
		if err != nil {
			result.Errors++
			metrics.IngestionErrorsTotal.Inc()
			lastErr = err
			s.logger.WithError(err).WithField("competition", competition).
				Warn("Failed to fetch competition")
			continue
		}
		result.Fetched += len(fetched)

		for i := range fetched {
			match, err := toMatch(&fetched[i])
			if err != nil {
				result.Errors++
				metrics.IngestionErrorsTotal.Inc()
				s.logger.WithError(err).WithField("source_id", fetched[i].SourceID).
					Warn("Skipping malformed match record")
				continue
			}
			if err := s.matches.Upsert(ctx, match); err != nil {
				result.Errors++
				metrics.IngestionErrorsTotal.Inc()
				lastErr = err
				s.logger.WithError(err).WithField("match_id", match.ID).
					Warn("Failed to upsert match")
				continue
			}
			result.Upserted++
			metrics.MatchesIngestedTotal.Inc()
		}
	}

	result.Duration = time.Since(start)
	s.logger.WithFields(logrus.Fields{
		"source": s.source.Name(),
		"sync":   result.String(),
	}).Info("Match sync complete")

	if result.Upserted == 0 && lastErr != nil {
		return result, fmt.Errorf("sync stored nothing: %w", lastErr)
	}
	return result, nil
}

// toMatch converts a provider record into the stored match model.
func toMatch(data *datasource.MatchData) (*models.Match, error) {
	if data.SourceID == 0 || data.HomeTeamID == 0 || data.AwayTeamID == 0 {
		return nil, fmt.Errorf("%w: missing identifiers", datasource.ErrInvalidData)
	}

	match := &models.Match{
		ID:          data.SourceID,
		Competition: data.Competition,
		Season:      data.Season,
		Matchday:    data.Matchday,
		UTCDate:     data.UTCDate,
		Status:      data.Status,
		HomeTeamID:  data.HomeTeamID,
		AwayTeamID:  data.AwayTeamID,
		HomeTeam:    data.HomeTeam,
		AwayTeam:    data.AwayTeam,
		HomeScore:   data.HomeScore,
		AwayScore:   data.AwayScore,
		HomeOdds:    data.HomeOdds,
		DrawOdds:    data.DrawOdds,
		AwayOdds:    data.AwayOdds,
	}

	if data.Winner != nil {
		outcome, err := models.ParseOutcome(*data.Winner)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", datasource.ErrInvalidData, err)
		}
		match.Winner = &outcome
	}

	return match, nil
}
