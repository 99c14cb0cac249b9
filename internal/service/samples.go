// Package service orchestrates ingestion, training, and prediction on top of
// the repository, feature, ml, and store layers.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/models"
)

// buildSamples turns finished matches into labeled samples. A match whose
// feature extraction fails is excluded and counted, never aborting the whole
// set; a match without a recorded winner is skipped silently.
func buildSamples(ctx context.Context, extractor *features.Extractor, matches []models.Match, logger *logrus.Logger) ([]models.LabeledSample, int, error) {
	samples := make([]models.LabeledSample, 0, len(matches))
	skipped := 0

	for i := range matches {
		match := &matches[i]
		if err := ctx.Err(); err != nil {
			return nil, skipped, fmt.Errorf("%w: sample building cancelled", models.ErrTrainingTimeout)
		}
		if match.Winner == nil || !match.Winner.Valid() {
			continue
		}

		fv, err := extractor.ForMatch(ctx, match, match.UTCDate)
		if err != nil {
			skipped++
			metrics.SamplesExcludedTotal.Inc()
			logger.WithError(err).WithField("match_id", match.ID).
				Debug("Excluded match from training set")
			continue
		}

		samples = append(samples, models.LabeledSample{
			MatchID:  match.ID,
			Features: fv,
			Label:    *match.Winner,
		})
	}

	return samples, skipped, nil
}
