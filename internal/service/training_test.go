package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ElMALIHI/footballai/internal/models"
)

func TestTrainModelsRejectsInvalidOptions(t *testing.T) {
	fix := newFixture(t, 100)

	opts := defaultTrainOptions()
	opts.Folds = 1
	if _, err := fix.training.TrainModels(context.Background(), opts); !errors.Is(err, models.ErrInvalidOptions) {
		t.Fatalf("folds=1: expected ErrInvalidOptions, got %v", err)
	}

	opts = defaultTrainOptions()
	opts.ModelTypes = []string{"gradient_boosting"}
	if _, err := fix.training.TrainModels(context.Background(), opts); !errors.Is(err, models.ErrInvalidOptions) {
		t.Fatalf("unknown model type: expected ErrInvalidOptions, got %v", err)
	}

	opts = defaultTrainOptions()
	opts.TestFraction = 1.5
	if _, err := fix.training.TrainModels(context.Background(), opts); !errors.Is(err, models.ErrInvalidOptions) {
		t.Fatalf("test fraction 1.5: expected ErrInvalidOptions, got %v", err)
	}
}

func TestTrainModelsInsufficientData(t *testing.T) {
	fix := newFixture(t, 100)
	seedSeason(fix.repo, 10, 10, 1) // 50 matches, below the 100 floor

	_, err := fix.training.TrainModels(context.Background(), defaultTrainOptions())
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	// Nothing was persisted.
	infos, err := fix.modelStore.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("failed run persisted %d models", len(infos))
	}
}

func TestTrainModelsTimeout(t *testing.T) {
	fix := newFixture(t, 100)
	seedSeason(fix.repo, 10, 31, 2)

	opts := defaultTrainOptions()
	opts.Budget = time.Nanosecond

	_, err := fix.training.TrainModels(context.Background(), opts)
	if !errors.Is(err, models.ErrTrainingTimeout) {
		t.Fatalf("expected ErrTrainingTimeout, got %v", err)
	}

	// A timed-out run leaves no partial model and no history entry.
	infos, err := fix.modelStore.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("timed-out run persisted %d models", len(infos))
	}
	runs, err := fix.history.List()
	if err != nil {
		t.Fatalf("history List: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("timed-out run recorded %d history entries", len(runs))
	}
}

func TestTrainModelsFullRun(t *testing.T) {
	fix := newFixture(t, 100)
	seedSeason(fix.repo, 10, 31, 3) // 155 finished matches

	opts := defaultTrainOptions()
	opts.ModelName = "pl_forest"

	run, err := fix.training.TrainModels(context.Background(), opts)
	if err != nil {
		t.Fatalf("TrainModels: %v", err)
	}

	if run.SampleCount < 100 {
		t.Fatalf("run used %d samples, want at least 100", run.SampleCount)
	}
	if len(run.Models) != 1 {
		t.Fatalf("run produced %d model results, want 1", len(run.Models))
	}

	result := run.Models[0]
	if result.ModelName != "pl_forest" {
		t.Fatalf("model persisted as %q", result.ModelName)
	}
	if result.CVAccuracy < 0 || result.CVAccuracy > 1 {
		t.Fatalf("CV accuracy %f outside [0,1]", result.CVAccuracy)
	}
	if result.TestAccuracy < 0 || result.TestAccuracy > 1 {
		t.Fatalf("test accuracy %f outside [0,1]", result.TestAccuracy)
	}
	if got, want := len(result.FoldResults), opts.Folds; got != want {
		t.Fatalf("recorded %d fold results, want %d", got, want)
	}

	if !fix.modelStore.Exists("pl_forest") {
		t.Fatal("trained model not persisted")
	}

	runs, err := fix.history.List()
	if err != nil {
		t.Fatalf("history List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("history holds %d runs, want 1", len(runs))
	}
	if runs[0].ID != run.ID {
		t.Fatal("history entry does not match the returned run")
	}
}

func TestTrainModelsDeterministicAcrossRuns(t *testing.T) {
	optsA := defaultTrainOptions()
	optsA.ModelName = "det_a"
	optsB := defaultTrainOptions()
	optsB.ModelName = "det_b"

	fixA := newFixture(t, 100)
	seedSeason(fixA.repo, 10, 31, 7)
	runA, err := fixA.training.TrainModels(context.Background(), optsA)
	if err != nil {
		t.Fatalf("TrainModels: %v", err)
	}

	fixB := newFixture(t, 100)
	seedSeason(fixB.repo, 10, 31, 7)
	runB, err := fixB.training.TrainModels(context.Background(), optsB)
	if err != nil {
		t.Fatalf("TrainModels: %v", err)
	}

	a, b := runA.Models[0], runB.Models[0]
	if a.BestParams != b.BestParams {
		t.Fatalf("same data and seed selected different params: %+v vs %+v", a.BestParams, b.BestParams)
	}
	if a.CVAccuracy != b.CVAccuracy || a.TestAccuracy != b.TestAccuracy {
		t.Fatal("same data and seed produced different accuracies")
	}
}

func TestTrainModelsMultipleTypes(t *testing.T) {
	fix := newFixture(t, 100)
	seedSeason(fix.repo, 10, 31, 5)

	opts := defaultTrainOptions()
	opts.ModelTypes = []string{models.ModelTypeRandomForest, models.ModelTypeDecisionTree}

	run, err := fix.training.TrainModels(context.Background(), opts)
	if err != nil {
		t.Fatalf("TrainModels: %v", err)
	}
	if len(run.Models) != 2 {
		t.Fatalf("run produced %d model results, want 2", len(run.Models))
	}
	for _, result := range run.Models {
		if !fix.modelStore.Exists(result.ModelName) {
			t.Fatalf("model %q not persisted", result.ModelName)
		}
	}
}

func TestSplitSamplesDeterministic(t *testing.T) {
	var samples []models.LabeledSample
	for i := 0; i < 50; i++ {
		samples = append(samples, models.LabeledSample{MatchID: int64(i)})
	}

	trainA, testA := splitSamples(samples, 0.2, 9)
	trainB, testB := splitSamples(samples, 0.2, 9)

	if len(testA) != 10 || len(trainA) != 40 {
		t.Fatalf("split sizes train=%d test=%d, want 40/10", len(trainA), len(testA))
	}
	for i := range testA {
		if testA[i].MatchID != testB[i].MatchID {
			t.Fatal("same seed produced a different test split")
		}
	}
	for i := range trainA {
		if trainA[i].MatchID != trainB[i].MatchID {
			t.Fatal("same seed produced a different train split")
		}
	}

	// Train and test are disjoint and cover everything.
	seen := make(map[int64]bool, 50)
	for _, s := range append(append([]models.LabeledSample{}, trainA...), testA...) {
		if seen[s.MatchID] {
			t.Fatalf("sample %d appears twice in the split", s.MatchID)
		}
		seen[s.MatchID] = true
	}
	if len(seen) != 50 {
		t.Fatalf("split covers %d samples, want 50", len(seen))
	}
}
