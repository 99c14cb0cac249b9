package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ElMALIHI/footballai/internal/models"
)

// Ensemble is an ordered collection of decision trees plus the
// hyperparameters and metadata of the run that produced it. Immutable once
// trained.
type Ensemble struct {
	ID            uuid.UUID              `json:"id"`
	ModelType     string                 `json:"model_type"`
	SchemaVersion int                    `json:"schema_version"`
	FeatureNames  []string               `json:"feature_names"`
	Params        models.Hyperparameters `json:"params"`
	Trees         []*Node                `json:"trees"`
	TrainedAt     time.Time              `json:"trained_at"`
	SampleCount   int                    `json:"sample_count"`
}

const probabilityTolerance = 1e-6

// TrainEnsemble trains params.NEstimators independent trees over the samples.
// Trees are trained on bootstrap resamples seeded deterministically per tree
// index (params.Seed + index), so a given (samples, params) pair always
// produces the same forest. The decision_tree model type trains a single tree
// on the full sample set without resampling.
//
// Cancellation is cooperative: the context is checked between tree-training
// iterations and the partial forest is discarded on cancellation.
func TrainEnsemble(ctx context.Context, samples []models.LabeledSample, params models.Hyperparameters, modelType string) (*Ensemble, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples to train on", models.ErrInsufficientData)
	}

	nTrees := params.NEstimators
	if modelType == models.ModelTypeDecisionTree {
		nTrees = 1
	}

	cfg := TreeConfig{
		MaxDepth:        params.MaxDepth,
		MinSamplesSplit: params.MinSamplesSplit,
		MinSamplesLeaf:  params.MinSamplesLeaf,
	}

	trees := make([]*Node, 0, nTrees)
	for i := 0; i < nTrees; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: cancelled after %d of %d trees", models.ErrTrainingTimeout, i, nTrees)
		}

		trainSet := samples
		if modelType == models.ModelTypeRandomForest {
			trainSet = bootstrap(samples, params.Seed+int64(i))
		}
		trees = append(trees, BuildTree(trainSet, models.FeatureSchema, cfg))
	}

	return &Ensemble{
		ID:            uuid.New(),
		ModelType:     modelType,
		SchemaVersion: models.FeatureSchemaVersion,
		FeatureNames:  append([]string(nil), models.FeatureSchema...),
		Params:        params,
		Trees:         trees,
		TrainedAt:     time.Now().UTC(),
		SampleCount:   len(samples),
	}, nil
}

// bootstrap draws a resample of the same size with replacement, seeded per
// tree index for reproducibility.
func bootstrap(samples []models.LabeledSample, seed int64) []models.LabeledSample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.LabeledSample, len(samples))
	for i := range out {
		out[i] = samples[rng.Intn(len(samples))]
	}
	return out
}

// Predict runs the feature vector through every tree and aggregates one
// majority-class vote per tree. The ensemble probability of a class is its
// vote share; the predicted class is the argmax with ties resolved by the
// canonical class order. Pure and deterministic for a given ensemble and
// input.
func (e *Ensemble) Predict(fv models.FeatureVector) (*models.PredictionResult, error) {
	if len(e.Trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", models.ErrSerialization)
	}
	if err := fv.Validate(); err != nil {
		return nil, err
	}

	votes := make(map[models.Outcome]int, len(models.ClassOrder))
	for _, tree := range e.Trees {
		votes[tree.Predict(fv).Class]++
	}

	probs := make(map[models.Outcome]float64, len(models.ClassOrder))
	predicted := models.ClassOrder[0]
	bestVotes := -1
	for _, class := range models.ClassOrder {
		probs[class] = float64(votes[class]) / float64(len(e.Trees))
		if votes[class] > bestVotes {
			bestVotes = votes[class]
			predicted = class
		}
	}

	return &models.PredictionResult{
		Predicted:     predicted,
		Probabilities: probs,
		Confidence:    probs[predicted],
		PredictedAt:   time.Now().UTC(),
	}, nil
}

// Validate checks structural invariants of a (possibly freshly deserialized)
// ensemble before it is exposed to callers.
func (e *Ensemble) Validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("%w: ensemble has no trees", models.ErrSerialization)
	}
	if e.SchemaVersion != models.FeatureSchemaVersion {
		return fmt.Errorf("%w: feature schema version %d, expected %d",
			models.ErrSerialization, e.SchemaVersion, models.FeatureSchemaVersion)
	}
	if len(e.FeatureNames) == 0 {
		return fmt.Errorf("%w: ensemble has no feature schema", models.ErrSerialization)
	}
	for i, tree := range e.Trees {
		if err := validateNode(tree); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func validateNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", models.ErrSerialization)
	}
	if n.Leaf {
		sum := 0.0
		for _, p := range n.Probabilities {
			sum += p
		}
		if n.Samples > 0 && math.Abs(sum-1) > probabilityTolerance {
			return fmt.Errorf("%w: leaf probabilities sum to %f", models.ErrSerialization, sum)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("%w: split node missing child", models.ErrSerialization)
	}
	if err := validateNode(n.Left); err != nil {
		return err
	}
	return validateNode(n.Right)
}
