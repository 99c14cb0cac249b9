package models

import "time"

// PredictionResult is the calibrated output of running a feature vector
// through a trained ensemble. Probabilities sum to 1 within floating
// tolerance; Confidence always equals Probabilities[Predicted].
type PredictionResult struct {
	MatchID       int64               `json:"match_id,omitempty"`
	ModelName     string              `json:"model_name"`
	Predicted     Outcome             `json:"predicted"`
	Probabilities map[Outcome]float64 `json:"probabilities"`
	Confidence    float64             `json:"confidence"`
	PredictedAt   time.Time           `json:"predicted_at"`
}

// MeetsThreshold reports whether the prediction confidence reaches the given
// threshold.
func (p *PredictionResult) MeetsThreshold(threshold float64) bool {
	return p.Confidence >= threshold
}

// ClassMetrics holds per-class evaluation metrics.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// EvaluationReport is the result of scoring an ensemble against held-out
// labeled samples.
type EvaluationReport struct {
	ModelName   string                   `json:"model_name"`
	SampleCount int                      `json:"sample_count"`
	Accuracy    float64                  `json:"accuracy"`
	PerClass    map[Outcome]ClassMetrics `json:"per_class"`
	EvaluatedAt time.Time                `json:"evaluated_at"`
}
