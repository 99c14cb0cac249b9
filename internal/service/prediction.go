package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/ml"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/repository"
	"github.com/ElMALIHI/footballai/internal/store"
)

// PredictionService serves predictions and evaluations from persisted models.
type PredictionService struct {
	matches    repository.MatchRepository
	extractor  *features.Extractor
	modelStore *store.ModelStore
	history    *store.TrainingHistory
	logger     *logrus.Logger
}

// NewPredictionService creates a prediction service.
func NewPredictionService(
	matches repository.MatchRepository,
	extractor *features.Extractor,
	modelStore *store.ModelStore,
	history *store.TrainingHistory,
	logger *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		matches:    matches,
		extractor:  extractor,
		modelStore: modelStore,
		history:    history,
		logger:     logger,
	}
}

// GenerateFeatures returns the feature vector for a match as of the given
// time. A zero asOf defaults to the match kickoff, so finished matches are
// reconstructed from the data available before they were played.
func (s *PredictionService) GenerateFeatures(ctx context.Context, matchID int64, asOf time.Time) (models.FeatureVector, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = match.UTCDate
	}
	return s.extractor.ForMatch(ctx, match, asOf)
}

// Predict scores one match with a persisted model. An empty modelName falls
// back to the default model for the match's competition; if no candidate is
// persisted the call fails with a model-not-found error.
func (s *PredictionService) Predict(ctx context.Context, matchID int64, modelName string) (*models.PredictionResult, error) {
	start := time.Now()

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName, err = s.defaultModelName(match.Competition)
		if err != nil {
			return nil, err
		}
	}
	ensemble, err := s.modelStore.Load(modelName)
	if err != nil {
		return nil, err
	}

	fv, err := s.extractor.ForMatch(ctx, match, match.UTCDate)
	if err != nil {
		return nil, err
	}

	result, err := ensemble.Predict(fv)
	if err != nil {
		return nil, err
	}
	result.MatchID = match.ID
	result.ModelName = modelName

	metrics.RecordPrediction(ensemble.ModelType, time.Since(start).Seconds())
	s.logger.WithFields(logrus.Fields{
		"match_id":   match.ID,
		"model":      modelName,
		"predicted":  result.Predicted,
		"confidence": result.Confidence,
	}).Debug("Served prediction")
	return result, nil
}

// defaultModelName resolves the model used when the caller names none: the
// competition-specific forest if one is persisted, otherwise the generic one.
func (s *PredictionService) defaultModelName(competition string) (string, error) {
	candidates := []string{
		models.ModelTypeRandomForest + "_" + strings.ToLower(competition),
		models.ModelTypeRandomForest,
	}
	for _, name := range candidates {
		if s.modelStore.Exists(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no trained model for competition %q", models.ErrModelNotFound, competition)
}

// EvaluateModel scores a persisted model against finished matches selected by
// the filter and reports accuracy plus per-class precision, recall, and F1.
func (s *PredictionService) EvaluateModel(ctx context.Context, modelName string, filter models.DataFilter) (*models.EvaluationReport, error) {
	ensemble, err := s.modelStore.Load(modelName)
	if err != nil {
		return nil, err
	}

	matches, err := s.matches.ListFinished(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation matches: %w", err)
	}
	samples, skipped, err := buildSamples(ctx, s.extractor, matches, s.logger)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.WithField("skipped", skipped).Debug("Excluded matches from evaluation set")
	}

	report, err := ml.Evaluate(ensemble, samples)
	if err != nil {
		return nil, err
	}
	report.ModelName = modelName
	return report, nil
}

// ListModels returns metadata for every persisted model and refreshes the
// persisted-models gauge.
func (s *PredictionService) ListModels() ([]models.ModelInfo, error) {
	infos, err := s.modelStore.List()
	if err != nil {
		return nil, err
	}
	metrics.PersistedModels.Set(float64(len(infos)))
	return infos, nil
}

// DeleteModel removes a persisted model by name.
func (s *PredictionService) DeleteModel(name string) error {
	return s.modelStore.Delete(name)
}

// TrainingStats aggregates the training history log.
func (s *PredictionService) TrainingStats() (*models.TrainingStats, error) {
	return s.history.Stats()
}
