package models

import (
	"time"

	"github.com/google/uuid"
)

// Supported model types.
const (
	ModelTypeRandomForest = "random_forest"
	ModelTypeDecisionTree = "decision_tree"
)

// Hyperparameters configure one ensemble training run.
type Hyperparameters struct {
	NEstimators     int   `json:"n_estimators" validate:"required,gt=0"`
	MaxDepth        int   `json:"max_depth" validate:"required,gt=0"`
	MinSamplesSplit int   `json:"min_samples_split" validate:"required,gt=1"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" validate:"required,gt=0"`
	Seed            int64 `json:"seed"`
}

// DataFilter selects which historical matches feed a training or evaluation
// run.
type DataFilter struct {
	Competition    string        `json:"competition,omitempty"`
	Season         string        `json:"season,omitempty"`
	Lookback       time.Duration `json:"lookback,omitempty"`
	MinTeamMatches int           `json:"min_team_matches,omitempty"`
}

// TrainOptions configure a trainModels invocation.
type TrainOptions struct {
	ModelTypes           []string      `json:"model_types" validate:"required,min=1,dive,oneof=random_forest decision_tree"`
	ModelName            string        `json:"model_name,omitempty"`
	Folds                int           `json:"folds" validate:"required,gte=2,lte=20"`
	HyperparameterSearch bool          `json:"hyperparameter_search"`
	TestFraction         float64       `json:"test_fraction" validate:"required,gt=0,lt=1"`
	Seed                 int64         `json:"seed"`
	Budget               time.Duration `json:"budget" validate:"required,gt=0"`
	Filter               DataFilter    `json:"filter"`
}

// FoldResult records one (fold, hyperparameter set) evaluation during
// cross-validation.
type FoldResult struct {
	Fold     int             `json:"fold"`
	Params   Hyperparameters `json:"params"`
	Accuracy float64         `json:"accuracy"`
	HeldOut  int             `json:"held_out"`
}

// ModelResult summarizes the selected model for one requested model type.
type ModelResult struct {
	ModelType    string          `json:"model_type"`
	ModelName    string          `json:"model_name"`
	BestParams   Hyperparameters `json:"best_params"`
	CVAccuracy   float64         `json:"cv_accuracy"`
	TestAccuracy float64         `json:"test_accuracy"`
	FoldResults  []FoldResult    `json:"fold_results"`
}

// TrainingRun is the append-only record of one training invocation. Never
// mutated after creation.
type TrainingRun struct {
	ID           uuid.UUID     `json:"id"`
	Options      TrainOptions  `json:"options"`
	Models       []ModelResult `json:"models"`
	SampleCount  int           `json:"sample_count"`
	SkippedCount int           `json:"skipped_count"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// TrainingStats aggregates the training history log.
type TrainingStats struct {
	TotalRuns       int                `json:"total_runs"`
	AverageDuration time.Duration      `json:"average_duration"`
	BestAccuracy    map[string]float64 `json:"best_accuracy"`
	LastRunAt       time.Time          `json:"last_run_at"`
}

// ModelInfo describes one persisted model file.
type ModelInfo struct {
	Name         string    `json:"name"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}
