package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/config"
	"github.com/ElMALIHI/footballai/internal/features"
	"github.com/ElMALIHI/footballai/internal/metrics"
	"github.com/ElMALIHI/footballai/internal/ml"
	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/repository"
	"github.com/ElMALIHI/footballai/internal/store"
)

// TrainingService runs the full training pipeline: load finished matches,
// derive labeled samples, cross-validate hyperparameters per model type, and
// persist the winning ensembles plus an append-only run record.
type TrainingService struct {
	matches    repository.MatchRepository
	extractor  *features.Extractor
	modelStore *store.ModelStore
	history    *store.TrainingHistory
	validator  *config.CustomValidator
	logger     *logrus.Logger
	minSamples int
}

// NewTrainingService creates a training service. minSamples is the floor of
// usable labeled samples below which training refuses to run.
func NewTrainingService(
	matches repository.MatchRepository,
	extractor *features.Extractor,
	modelStore *store.ModelStore,
	history *store.TrainingHistory,
	logger *logrus.Logger,
	minSamples int,
) *TrainingService {
	return &TrainingService{
		matches:    matches,
		extractor:  extractor,
		modelStore: modelStore,
		history:    history,
		validator:  config.NewValidator(),
		logger:     logger,
		minSamples: minSamples,
	}
}

// trainedModel pairs an ensemble with its result so nothing is persisted
// until every requested model type has trained. A run that times out halfway
// leaves the store untouched.
type trainedModel struct {
	name     string
	ensemble *ml.Ensemble
	result   models.ModelResult
}

// TrainModels executes one training run. The whole run shares a wall-clock
// budget; when it expires the run fails with a training timeout and no model
// is persisted.
func (s *TrainingService) TrainModels(ctx context.Context, opts models.TrainOptions) (*models.TrainingRun, error) {
	if err := s.validator.ValidateStruct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidOptions, err)
	}

	started := time.Now().UTC()
	ctx, cancel := context.WithTimeout(ctx, opts.Budget)
	defer cancel()

	run, err := s.train(ctx, opts, started)
	if err != nil {
		result := "failure"
		if errors.Is(err, models.ErrTrainingTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.RecordTrainingRun(result, time.Since(started).Seconds())
		return nil, err
	}

	metrics.RecordTrainingRun("success", time.Since(started).Seconds())
	return run, nil
}

func (s *TrainingService) train(ctx context.Context, opts models.TrainOptions, started time.Time) (*models.TrainingRun, error) {
	matches, err := s.matches.ListFinished(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load training matches: %w", err)
	}

	samples, skipped, err := buildSamples(ctx, s.extractor, matches, s.logger)
	if err != nil {
		return nil, err
	}
	if len(samples) < s.minSamples {
		return nil, fmt.Errorf("%w: %d usable samples, need at least %d",
			models.ErrInsufficientData, len(samples), s.minSamples)
	}

	s.logger.WithFields(logrus.Fields{
		"matches": len(matches),
		"samples": len(samples),
		"skipped": skipped,
	}).Info("Built training set")

	train, test := splitSamples(samples, opts.TestFraction, opts.Seed)

	trained := make([]trainedModel, 0, len(opts.ModelTypes))
	for _, modelType := range opts.ModelTypes {
		grid := ml.SearchGrid(modelType, opts.Seed, opts.HyperparameterSearch)
		search, err := ml.Search(ctx, s.logger, train, test, grid, opts.Folds, modelType)
		if err != nil {
			return nil, fmt.Errorf("training %s: %w", modelType, err)
		}

		name := modelName(opts, modelType)
		trained = append(trained, trainedModel{
			name:     name,
			ensemble: search.Best,
			result: models.ModelResult{
				ModelType:    modelType,
				ModelName:    name,
				BestParams:   search.BestParams,
				CVAccuracy:   search.BestScore,
				TestAccuracy: search.TestAccuracy,
				FoldResults:  search.FoldResults,
			},
		})
	}

	// Persist only after every requested model type trained successfully.
	run := &models.TrainingRun{
		ID:           uuid.New(),
		Options:      opts,
		SampleCount:  len(samples),
		SkippedCount: skipped,
		StartedAt:    started,
	}
	for _, tm := range trained {
		if err := s.modelStore.Save(tm.ensemble, tm.name); err != nil {
			return nil, err
		}
		metrics.ModelTestAccuracy.WithLabelValues(tm.name, tm.result.ModelType).
			Set(tm.result.TestAccuracy)
		run.Models = append(run.Models, tm.result)
	}
	run.Duration = time.Since(started)

	if err := s.history.Append(run); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"models":   len(run.Models),
		"duration": run.Duration,
	}).Info("Training run complete")
	return run, nil
}

// splitSamples shuffles with the run seed and carves off the trailing test
// fraction. The split is fully determined by the seed, so a rerun with the
// same options reproduces it.
func splitSamples(samples []models.LabeledSample, testFraction float64, seed int64) (train, test []models.LabeledSample) {
	shuffled := make([]models.LabeledSample, len(samples))
	copy(shuffled, samples)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testN := int(float64(len(shuffled)) * testFraction)
	if testN < 1 {
		testN = 1
	}
	cut := len(shuffled) - testN
	return shuffled[:cut], shuffled[cut:]
}

// modelName derives the persisted name for one model type. An explicit name
// wins; with several model types it gets a type suffix to keep names unique.
func modelName(opts models.TrainOptions, modelType string) string {
	if opts.ModelName != "" {
		if len(opts.ModelTypes) == 1 {
			return opts.ModelName
		}
		return opts.ModelName + "_" + modelType
	}
	name := modelType
	if opts.Filter.Competition != "" {
		name += "_" + strings.ToLower(opts.Filter.Competition)
	}
	return name
}
