package ml

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ElMALIHI/footballai/internal/models"
)

// syntheticSamples generates a labeled set where the outcome follows the
// season-points differential plus noise, which gives trees something real to
// learn without being trivially separable.
func syntheticSamples(n int, seed int64) []models.LabeledSample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]models.LabeledSample, 0, n)
	for i := 0; i < n; i++ {
		home := rng.Float64()
		away := rng.Float64()

		fv := models.ZeroFeatureVector()
		fv[models.FeatHomeSeasonPoints] = home
		fv[models.FeatAwaySeasonPoints] = away
		fv[models.FeatHomeFormWinRate] = clamp01(home + rng.Float64()*0.2 - 0.1)
		fv[models.FeatAwayFormWinRate] = clamp01(away + rng.Float64()*0.2 - 0.1)
		fv[models.FeatHomeMomentum] = rng.Float64()*2 - 1
		fv[models.FeatCompetitionTier] = 0.8

		var label models.Outcome
		switch diff := home - away; {
		case diff > 0.1:
			label = models.OutcomeHome
		case diff < -0.1:
			label = models.OutcomeAway
		default:
			label = models.OutcomeDraw
		}

		samples = append(samples, models.LabeledSample{
			MatchID:  int64(i + 1),
			Features: fv,
			Label:    label,
		})
	}
	return samples
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func testParams(seed int64) models.Hyperparameters {
	return models.Hyperparameters{
		NEstimators:     10,
		MaxDepth:        6,
		MinSamplesSplit: 4,
		MinSamplesLeaf:  2,
		Seed:            seed,
	}
}

func TestTrainEnsembleEmptyInput(t *testing.T) {
	_, err := TrainEnsemble(context.Background(), nil, testParams(1), models.ModelTypeRandomForest)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrainEnsembleTreeCount(t *testing.T) {
	samples := syntheticSamples(80, 7)

	forest, err := TrainEnsemble(context.Background(), samples, testParams(1), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}
	if len(forest.Trees) != 10 {
		t.Fatalf("expected 10 trees, got %d", len(forest.Trees))
	}

	tree, err := TrainEnsemble(context.Background(), samples, testParams(1), models.ModelTypeDecisionTree)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}
	if len(tree.Trees) != 1 {
		t.Fatalf("decision_tree should train exactly 1 tree, got %d", len(tree.Trees))
	}
}

func TestTrainEnsembleDeterministic(t *testing.T) {
	samples := syntheticSamples(100, 11)

	a, err := TrainEnsemble(context.Background(), samples, testParams(42), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}
	b, err := TrainEnsemble(context.Background(), samples, testParams(42), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}

	for _, s := range syntheticSamples(20, 99) {
		pa, err := a.Predict(s.Features)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		pb, err := b.Predict(s.Features)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if pa.Predicted != pb.Predicted {
			t.Fatalf("same seed produced different predictions: %s vs %s", pa.Predicted, pb.Predicted)
		}
		for _, class := range models.ClassOrder {
			if pa.Probabilities[class] != pb.Probabilities[class] {
				t.Fatalf("same seed produced different probabilities for %s", class)
			}
		}
	}
}

func TestTrainEnsembleCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainEnsemble(ctx, syntheticSamples(50, 3), testParams(1), models.ModelTypeRandomForest)
	if !errors.Is(err, models.ErrTrainingTimeout) {
		t.Fatalf("expected ErrTrainingTimeout, got %v", err)
	}
}

func TestPredictProbabilitiesSumToOne(t *testing.T) {
	forest, err := TrainEnsemble(context.Background(), syntheticSamples(120, 5), testParams(5), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}

	for _, s := range syntheticSamples(30, 77) {
		result, err := forest.Predict(s.Features)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}

		sum := 0.0
		for _, class := range models.ClassOrder {
			p := result.Probabilities[class]
			if p < 0 || p > 1 {
				t.Fatalf("probability %f for %s outside [0,1]", p, class)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > probabilityTolerance {
			t.Fatalf("probabilities sum to %f", sum)
		}
		if result.Confidence != result.Probabilities[result.Predicted] {
			t.Fatalf("confidence %f does not match predicted class probability %f",
				result.Confidence, result.Probabilities[result.Predicted])
		}
	}
}

func TestPredictAllZeroVector(t *testing.T) {
	forest, err := TrainEnsemble(context.Background(), syntheticSamples(80, 13), testParams(13), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}

	result, err := forest.Predict(models.ZeroFeatureVector())
	if err != nil {
		t.Fatalf("Predict on all-zero vector: %v", err)
	}
	if !result.Predicted.Valid() {
		t.Fatalf("invalid predicted outcome %q", result.Predicted)
	}
}

func TestPredictRejectsIncompleteVector(t *testing.T) {
	forest, err := TrainEnsemble(context.Background(), syntheticSamples(60, 17), testParams(17), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}

	fv := models.ZeroFeatureVector()
	delete(fv, models.FeatHomeMomentum)
	if _, err := forest.Predict(fv); !errors.Is(err, models.ErrFeatureGeneration) {
		t.Fatalf("expected ErrFeatureGeneration, got %v", err)
	}
}

func TestEnsembleValidate(t *testing.T) {
	forest, err := TrainEnsemble(context.Background(), syntheticSamples(60, 19), testParams(19), models.ModelTypeRandomForest)
	if err != nil {
		t.Fatalf("TrainEnsemble: %v", err)
	}
	if err := forest.Validate(); err != nil {
		t.Fatalf("freshly trained ensemble failed validation: %v", err)
	}

	forest.SchemaVersion = models.FeatureSchemaVersion + 1
	if err := forest.Validate(); err == nil {
		t.Fatal("expected validation failure on schema version mismatch")
	}
}
