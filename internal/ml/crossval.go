package ml

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/models"
)

// SearchResult carries the outcome of a cross-validated hyperparameter
// search.
type SearchResult struct {
	FoldResults  []models.FoldResult
	Best         *Ensemble
	BestParams   models.Hyperparameters
	BestScore    float64
	TestAccuracy float64
}

// Search runs k-fold cross-validation over every candidate hyperparameter
// set, selects the single (fold, candidate) combination with the highest
// held-out accuracy, retrains that candidate on the full training set, and
// scores it once against the separate test holdout for an unbiased final
// accuracy. The test set is never consulted during selection.
//
// Candidates and folds are evaluated in order and a strictly higher accuracy
// is required to replace the incumbent, so the search is deterministic.
func Search(ctx context.Context, logger *logrus.Logger, train, test []models.LabeledSample, candidates []models.Hyperparameters, k int, modelType string) (*SearchResult, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d", models.ErrInvalidOptions, k)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no hyperparameter candidates", models.ErrInvalidOptions)
	}
	if len(train) < k {
		return nil, fmt.Errorf("%w: %d training samples cannot fill %d folds", models.ErrInsufficientData, len(train), k)
	}

	folds := partitionFolds(train, k)
	result := &SearchResult{BestScore: -1}

	for _, params := range candidates {
		for f := 0; f < k; f++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: search cancelled at fold %d", models.ErrTrainingTimeout, f)
			}

			trainFolds := foldsExcept(folds, f)
			ensemble, err := TrainEnsemble(ctx, trainFolds, params, modelType)
			if err != nil {
				return nil, err
			}

			accuracy, err := foldAccuracy(ensemble, folds[f])
			if err != nil {
				return nil, err
			}

			result.FoldResults = append(result.FoldResults, models.FoldResult{
				Fold:     f,
				Params:   params,
				Accuracy: accuracy,
				HeldOut:  len(folds[f]),
			})

			logger.WithFields(logrus.Fields{
				"model_type": modelType,
				"fold":       f,
				"accuracy":   accuracy,
				"held_out":   len(folds[f]),
			}).Debug("Evaluated cross-validation fold")

			if accuracy > result.BestScore {
				result.BestScore = accuracy
				result.BestParams = params
			}
		}
	}

	// Retrain the winning candidate on the full training set.
	best, err := TrainEnsemble(ctx, train, result.BestParams, modelType)
	if err != nil {
		return nil, err
	}
	result.Best = best

	testAccuracy, err := foldAccuracy(best, test)
	if err != nil {
		return nil, err
	}
	result.TestAccuracy = testAccuracy

	logger.WithFields(logrus.Fields{
		"model_type":    modelType,
		"cv_accuracy":   result.BestScore,
		"test_accuracy": result.TestAccuracy,
		"candidates":    len(candidates),
		"folds":         k,
	}).Info("Hyperparameter search complete")

	return result, nil
}

// partitionFolds splits samples into k contiguous, non-overlapping folds.
// Fold sizes are as equal as integer division allows; the last fold absorbs
// the remainder. The union of all folds is exactly the input set.
func partitionFolds(samples []models.LabeledSample, k int) [][]models.LabeledSample {
	folds := make([][]models.LabeledSample, k)
	size := len(samples) / k
	for f := 0; f < k; f++ {
		start := f * size
		end := start + size
		if f == k-1 {
			end = len(samples)
		}
		folds[f] = samples[start:end]
	}
	return folds
}

func foldsExcept(folds [][]models.LabeledSample, skip int) []models.LabeledSample {
	var out []models.LabeledSample
	for f, fold := range folds {
		if f == skip {
			continue
		}
		out = append(out, fold...)
	}
	return out
}

// foldAccuracy computes exact-match accuracy of the ensemble over held-out
// samples.
func foldAccuracy(ensemble *Ensemble, samples []models.LabeledSample) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: empty held-out set", models.ErrInsufficientData)
	}
	correct := 0
	for _, s := range samples {
		pred, err := ensemble.Predict(s.Features)
		if err != nil {
			return 0, err
		}
		if pred.Predicted == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples)), nil
}
