// Package ml implements the decision-tree ensemble at the heart of the
// match-outcome prediction pipeline: impurity-based tree building, bagged
// forest training, cross-validated hyperparameter search, and evaluation.
package ml

import (
	"sort"

	"github.com/ElMALIHI/footballai/internal/models"
)

// TreeConfig bounds recursive tree growth.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
}

// Node is one node of a decision tree. A split node routes samples with
// feature value <= Threshold to Left and the rest to Right. A leaf node
// carries the empirical class distribution of the training samples that
// reached it.
type Node struct {
	Leaf          bool                       `json:"leaf"`
	Feature       string                     `json:"feature,omitempty"`
	Threshold     float64                    `json:"threshold,omitempty"`
	Left          *Node                      `json:"left,omitempty"`
	Right         *Node                      `json:"right,omitempty"`
	Probabilities map[models.Outcome]float64 `json:"probabilities,omitempty"`
	Class         models.Outcome             `json:"class,omitempty"`
	Samples       int                        `json:"samples"`
}

// BuildTree grows a decision tree over the given samples. Candidate split
// features are enumerated in the order of featureNames and candidate
// thresholds in ascending order; a strictly better impurity is required to
// replace the current best, so the first candidate wins ties. This makes
// tree building fully deterministic for a given sample order.
func BuildTree(samples []models.LabeledSample, featureNames []string, cfg TreeConfig) *Node {
	return buildNode(samples, featureNames, cfg, 0)
}

func buildNode(samples []models.LabeledSample, featureNames []string, cfg TreeConfig, depth int) *Node {
	if depth >= cfg.MaxDepth || len(samples) < cfg.MinSamplesSplit || isPure(samples) {
		return newLeaf(samples)
	}

	feature, threshold, found := bestSplit(samples, featureNames)
	if !found {
		return newLeaf(samples)
	}

	left, right := partition(samples, feature, threshold)
	if len(left) < cfg.MinSamplesLeaf || len(right) < cfg.MinSamplesLeaf {
		return newLeaf(samples)
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildNode(left, featureNames, cfg, depth+1),
		Right:     buildNode(right, featureNames, cfg, depth+1),
		Samples:   len(samples),
	}
}

// Predict walks the tree for a single feature vector and returns the leaf
// reached. Features absent from the vector are treated as zero, which is the
// documented default for missing history.
func (n *Node) Predict(fv models.FeatureVector) *Node {
	node := n
	for !node.Leaf {
		if fv[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Depth returns the depth of the tree rooted at n.
func (n *Node) Depth() int {
	if n == nil || n.Leaf {
		return 0
	}
	left, right := n.Left.Depth(), n.Right.Depth()
	if left > right {
		return left + 1
	}
	return right + 1
}

func newLeaf(samples []models.LabeledSample) *Node {
	counts := make(map[models.Outcome]int, len(models.ClassOrder))
	for _, s := range samples {
		counts[s.Label]++
	}

	probs := make(map[models.Outcome]float64, len(models.ClassOrder))
	majority := models.ClassOrder[0]
	bestCount := -1
	for _, class := range models.ClassOrder {
		if len(samples) > 0 {
			probs[class] = float64(counts[class]) / float64(len(samples))
		} else {
			probs[class] = 0
		}
		// Strict > keeps the first class in canonical order on ties.
		if counts[class] > bestCount {
			bestCount = counts[class]
			majority = class
		}
	}

	return &Node{
		Leaf:          true,
		Probabilities: probs,
		Class:         majority,
		Samples:       len(samples),
	}
}

// bestSplit evaluates every feature and every midpoint threshold between
// consecutive sorted unique observed values, and returns the split with the
// minimum sample-weighted Gini impurity.
func bestSplit(samples []models.LabeledSample, featureNames []string) (string, float64, bool) {
	var (
		bestFeature   string
		bestThreshold float64
		bestImpurity  float64
		found         bool
	)

	for _, feature := range featureNames {
		for _, threshold := range candidateThresholds(samples, feature) {
			left, right := partition(samples, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			impurity := weightedGini(left, right)
			if !found || impurity < bestImpurity {
				bestFeature = feature
				bestThreshold = threshold
				bestImpurity = impurity
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// candidateThresholds returns the midpoints between consecutive sorted unique
// values of the feature, in ascending order.
func candidateThresholds(samples []models.LabeledSample, feature string) []float64 {
	seen := make(map[float64]struct{}, len(samples))
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		v := s.Features[feature]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return nil
	}
	sort.Float64s(values)

	thresholds := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		thresholds = append(thresholds, (values[i-1]+values[i])/2)
	}
	return thresholds
}

func partition(samples []models.LabeledSample, feature string, threshold float64) (left, right []models.LabeledSample) {
	for _, s := range samples {
		if s.Features[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

// weightedGini computes the sample-weighted Gini impurity of a two-way
// partition.
func weightedGini(left, right []models.LabeledSample) float64 {
	total := float64(len(left) + len(right))
	return float64(len(left))/total*gini(left) + float64(len(right))/total*gini(right)
}

// gini computes 1 - sum(p_c^2) over the class proportions of the sample set.
func gini(samples []models.LabeledSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	counts := make(map[models.Outcome]int, len(models.ClassOrder))
	for _, s := range samples {
		counts[s.Label]++
	}
	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(len(samples))
		impurity -= p * p
	}
	return impurity
}

func isPure(samples []models.LabeledSample) bool {
	if len(samples) == 0 {
		return true
	}
	first := samples[0].Label
	for _, s := range samples[1:] {
		if s.Label != first {
			return false
		}
	}
	return true
}
