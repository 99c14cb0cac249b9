package ml

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ElMALIHI/footballai/internal/models"
)

func sample(label models.Outcome, values map[string]float64) models.LabeledSample {
	fv := models.ZeroFeatureVector()
	for name, v := range values {
		fv[name] = v
	}
	return models.LabeledSample{Features: fv, Label: label}
}

func TestBuildTreePureSamplesYieldLeaf(t *testing.T) {
	samples := []models.LabeledSample{
		sample(models.OutcomeHome, map[string]float64{models.FeatHomeFormWinRate: 0.9}),
		sample(models.OutcomeHome, map[string]float64{models.FeatHomeFormWinRate: 0.1}),
		sample(models.OutcomeHome, map[string]float64{models.FeatHomeFormWinRate: 0.5}),
	}

	root := BuildTree(samples, models.FeatureSchema, TreeConfig{MaxDepth: 5, MinSamplesSplit: 2, MinSamplesLeaf: 1})
	if !root.Leaf {
		t.Fatal("expected a leaf for a pure sample set")
	}
	if root.Class != models.OutcomeHome {
		t.Fatalf("expected majority class HOME_TEAM, got %s", root.Class)
	}
	if root.Probabilities[models.OutcomeHome] != 1.0 {
		t.Fatalf("expected probability 1.0 for the only class, got %f", root.Probabilities[models.OutcomeHome])
	}
}

func TestBuildTreeSplitsSeparableData(t *testing.T) {
	var samples []models.LabeledSample
	for i := 0; i < 10; i++ {
		samples = append(samples, sample(models.OutcomeHome, map[string]float64{models.FeatHomeSeasonPoints: 0.9}))
		samples = append(samples, sample(models.OutcomeAway, map[string]float64{models.FeatHomeSeasonPoints: 0.1}))
	}

	root := BuildTree(samples, models.FeatureSchema, TreeConfig{MaxDepth: 5, MinSamplesSplit: 4, MinSamplesLeaf: 2})
	if root.Leaf {
		t.Fatal("expected a split on separable data")
	}
	if root.Feature != models.FeatHomeSeasonPoints {
		t.Fatalf("expected split on %s, got %s", models.FeatHomeSeasonPoints, root.Feature)
	}
	if math.Abs(root.Threshold-0.5) > 1e-9 {
		t.Fatalf("expected midpoint threshold 0.5, got %f", root.Threshold)
	}

	strong := models.ZeroFeatureVector()
	strong[models.FeatHomeSeasonPoints] = 0.8
	if leaf := root.Predict(strong); leaf.Class != models.OutcomeHome {
		t.Fatalf("strong home side predicted %s", leaf.Class)
	}
	weak := models.ZeroFeatureVector()
	weak[models.FeatHomeSeasonPoints] = 0.2
	if leaf := root.Predict(weak); leaf.Class != models.OutcomeAway {
		t.Fatalf("weak home side predicted %s", leaf.Class)
	}
}

func TestBuildTreeRespectsMaxDepth(t *testing.T) {
	var samples []models.LabeledSample
	labels := []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway}
	for i := 0; i < 60; i++ {
		samples = append(samples, sample(labels[i%3], map[string]float64{
			models.FeatHomeFormWinRate:  float64(i) / 60,
			models.FeatAwayFormWinRate:  float64(60-i) / 60,
			models.FeatHomeSeasonPoints: float64(i%7) / 7,
		}))
	}

	for _, maxDepth := range []int{1, 2, 4} {
		root := BuildTree(samples, models.FeatureSchema, TreeConfig{MaxDepth: maxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1})
		if depth := root.Depth(); depth > maxDepth {
			t.Fatalf("tree depth %d exceeds configured max %d", depth, maxDepth)
		}
	}
}

func TestBuildTreeSplitSampleCounts(t *testing.T) {
	var samples []models.LabeledSample
	labels := []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway}
	for i := 0; i < 90; i++ {
		samples = append(samples, sample(labels[i%3], map[string]float64{
			models.FeatHomeFormWinRate: float64(i) / 90,
			models.FeatH2HGoalDiff:     float64(i%5)/5 - 0.4,
		}))
	}

	root := BuildTree(samples, models.FeatureSchema, TreeConfig{MaxDepth: 6, MinSamplesSplit: 5, MinSamplesLeaf: 2})

	var check func(n *Node)
	check = func(n *Node) {
		if n.Leaf {
			return
		}
		if n.Left == nil || n.Right == nil {
			t.Fatal("split node with missing child")
		}
		if n.Left.Samples+n.Right.Samples != n.Samples {
			t.Fatalf("child sample counts %d+%d do not sum to parent %d",
				n.Left.Samples, n.Right.Samples, n.Samples)
		}
		check(n.Left)
		check(n.Right)
	}
	check(root)
}

func TestBuildTreeDeterministic(t *testing.T) {
	var samples []models.LabeledSample
	labels := []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway}
	for i := 0; i < 45; i++ {
		samples = append(samples, sample(labels[i%3], map[string]float64{
			models.FeatHomeFormWinRate: float64(i*7%45) / 45,
			models.FeatAwayFormWinRate: float64(i*11%45) / 45,
		}))
	}

	cfg := TreeConfig{MaxDepth: 5, MinSamplesSplit: 4, MinSamplesLeaf: 2}
	a, _ := json.Marshal(BuildTree(samples, models.FeatureSchema, cfg))
	b, _ := json.Marshal(BuildTree(samples, models.FeatureSchema, cfg))
	if string(a) != string(b) {
		t.Fatal("two builds over the same samples produced different trees")
	}
}

func TestLeafTieBreakUsesClassOrder(t *testing.T) {
	samples := []models.LabeledSample{
		sample(models.OutcomeAway, nil),
		sample(models.OutcomeDraw, nil),
	}
	leaf := newLeaf(samples)
	// DRAW precedes AWAY_TEAM in the canonical order.
	if leaf.Class != models.OutcomeDraw {
		t.Fatalf("expected tie broken to DRAW, got %s", leaf.Class)
	}
}

func TestCandidateThresholds(t *testing.T) {
	samples := []models.LabeledSample{
		sample(models.OutcomeHome, map[string]float64{models.FeatHomeMomentum: 0.0}),
		sample(models.OutcomeAway, map[string]float64{models.FeatHomeMomentum: 1.0}),
		sample(models.OutcomeDraw, map[string]float64{models.FeatHomeMomentum: 1.0}),
	}

	got := candidateThresholds(samples, models.FeatHomeMomentum)
	if len(got) != 1 || got[0] != 0.5 {
		t.Fatalf("expected single midpoint 0.5, got %v", got)
	}

	if got := candidateThresholds(samples, models.FeatAwayMomentum); got != nil {
		t.Fatalf("constant feature should yield no thresholds, got %v", got)
	}
}

func TestGini(t *testing.T) {
	pure := []models.LabeledSample{sample(models.OutcomeHome, nil), sample(models.OutcomeHome, nil)}
	if g := gini(pure); g != 0 {
		t.Fatalf("pure set gini = %f, want 0", g)
	}

	mixed := []models.LabeledSample{sample(models.OutcomeHome, nil), sample(models.OutcomeAway, nil)}
	if g := gini(mixed); math.Abs(g-0.5) > 1e-9 {
		t.Fatalf("two-class even split gini = %f, want 0.5", g)
	}
}
