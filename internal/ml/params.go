package ml

import "github.com/ElMALIHI/footballai/internal/models"

// DefaultHyperparameters returns the baseline configuration for a model type.
func DefaultHyperparameters(modelType string, seed int64) models.Hyperparameters {
	switch modelType {
	case models.ModelTypeDecisionTree:
		return models.Hyperparameters{
			NEstimators:     1,
			MaxDepth:        8,
			MinSamplesSplit: 10,
			MinSamplesLeaf:  5,
			Seed:            seed,
		}
	default:
		return models.Hyperparameters{
			NEstimators:     50,
			MaxDepth:        8,
			MinSamplesSplit: 10,
			MinSamplesLeaf:  5,
			Seed:            seed,
		}
	}
}

// SearchGrid returns the candidate hyperparameter sets for a model type.
// With search disabled it returns only the defaults. Candidates are ordered,
// and the cross-validator evaluates them in this order, so grid enumeration
// is part of the deterministic contract.
func SearchGrid(modelType string, seed int64, search bool) []models.Hyperparameters {
	base := DefaultHyperparameters(modelType, seed)
	if !search {
		return []models.Hyperparameters{base}
	}

	var grid []models.Hyperparameters
	estimatorCounts := []int{25, 50, 100}
	if modelType == models.ModelTypeDecisionTree {
		estimatorCounts = []int{1}
	}
	for _, n := range estimatorCounts {
		for _, depth := range []int{6, 8, 12} {
			for _, minLeaf := range []int{3, 5} {
				params := base
				params.NEstimators = n
				params.MaxDepth = depth
				params.MinSamplesLeaf = minLeaf
				params.MinSamplesSplit = minLeaf * 2
				grid = append(grid, params)
			}
		}
	}
	return grid
}
