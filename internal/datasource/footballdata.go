package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const sourceName = "football_data"

// FootballDataSource fetches matches from the football-data.org v4 API.
type FootballDataSource struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewFootballDataSource creates a football-data.org client.
func NewFootballDataSource(client *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *FootballDataSource {
	return &FootballDataSource{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Name returns the data source name.
func (s *FootballDataSource) Name() string {
	return sourceName
}

// Provider wire types.
type fdMatchesResponse struct {
	Matches []fdMatch `json:"matches"`
}

type fdMatch struct {
	ID       int64    `json:"id"`
	UTCDate  time.Time `json:"utcDate"`
	Status   string   `json:"status"`
	Matchday int      `json:"matchday"`
	Season   fdSeason `json:"season"`
	HomeTeam fdTeam   `json:"homeTeam"`
	AwayTeam fdTeam   `json:"awayTeam"`
	Score    fdScore  `json:"score"`
	Odds     *fdOdds  `json:"odds,omitempty"`
	Competition struct {
		Code string `json:"code"`
	} `json:"competition"`
}

type fdSeason struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type fdTeam struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fdScore struct {
	Winner   *string `json:"winner,omitempty"`
	FullTime struct {
		Home *int `json:"home,omitempty"`
		Away *int `json:"away,omitempty"`
	} `json:"fullTime"`
}

type fdOdds struct {
	HomeWin *decimal.Decimal `json:"homeWin,omitempty"`
	Draw    *decimal.Decimal `json:"draw,omitempty"`
	AwayWin *decimal.Decimal `json:"awayWin,omitempty"`
}

// FetchMatches retrieves matches for a competition within the date range.
func (s *FootballDataSource) FetchMatches(ctx context.Context, competition string, dateFrom, dateTo time.Time) ([]MatchData, error) {
	endpoint := fmt.Sprintf("%s/v4/competitions/%s/matches?%s",
		s.baseURL,
		url.PathEscape(competition),
		url.Values{
			"dateFrom": []string{dateFrom.Format("2006-01-02")},
			"dateTo":   []string{dateTo.Format("2006-01-02")},
		}.Encode(),
	)

	headers := map[string]string{}
	if s.apiKey != "" {
		headers["X-Auth-Token"] = s.apiKey
	}

	resp, err := s.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches for %s: %w", competition, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: competition %s", ErrRateLimitExceeded, competition)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: competition %s", ErrAuthenticationFailed, competition)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: competition %s", ErrNotFound, competition)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed fdMatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	matches := make([]MatchData, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		code := m.Competition.Code
		if code == "" {
			code = competition
		}
		matches = append(matches, MatchData{
			SourceID:    m.ID,
			Competition: code,
			Season:      seasonLabel(m.Season),
			Matchday:    m.Matchday,
			UTCDate:     m.UTCDate,
			Status:      m.Status,
			HomeTeamID:  m.HomeTeam.ID,
			AwayTeamID:  m.AwayTeam.ID,
			HomeTeam:    m.HomeTeam.Name,
			AwayTeam:    m.AwayTeam.Name,
			HomeScore:   m.Score.FullTime.Home,
			AwayScore:   m.Score.FullTime.Away,
			Winner:      m.Score.Winner,
			HomeOdds:    oddsField(m.Odds, func(o *fdOdds) *decimal.Decimal { return o.HomeWin }),
			DrawOdds:    oddsField(m.Odds, func(o *fdOdds) *decimal.Decimal { return o.Draw }),
			AwayOdds:    oddsField(m.Odds, func(o *fdOdds) *decimal.Decimal { return o.AwayWin }),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"competition": competition,
		"from":        dateFrom.Format("2006-01-02"),
		"to":          dateTo.Format("2006-01-02"),
		"matches":     len(matches),
	}).Debug("Fetched matches from provider")

	return matches, nil
}

// seasonLabel renders a provider season as "2024-2025" (or "2024" for
// single-year seasons).
func seasonLabel(s fdSeason) string {
	startYear := yearOf(s.StartDate)
	endYear := yearOf(s.EndDate)
	if startYear == "" {
		return ""
	}
	if endYear == "" || endYear == startYear {
		return startYear
	}
	return startYear + "-" + endYear
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func oddsField(o *fdOdds, pick func(*fdOdds) *decimal.Decimal) *decimal.Decimal {
	if o == nil {
		return nil
	}
	return pick(o)
}
