package ml

import (
	"fmt"
	"time"

	"github.com/ElMALIHI/footballai/internal/models"
)

// MinEvaluationSamples is the smallest labeled set an evaluation accepts.
// Below this, per-class metrics are statistically meaningless.
const MinEvaluationSamples = 10

// Evaluate scores an ensemble against held-out labeled samples and returns
// accuracy plus per-class precision, recall, and F1. Calling it twice on the
// same ensemble and data yields identical metrics.
func Evaluate(ensemble *Ensemble, samples []models.LabeledSample) (*models.EvaluationReport, error) {
	if len(samples) < MinEvaluationSamples {
		return nil, fmt.Errorf("%w: %d evaluation samples, minimum is %d",
			models.ErrInsufficientData, len(samples), MinEvaluationSamples)
	}

	correct := 0
	truePos := make(map[models.Outcome]int)
	falsePos := make(map[models.Outcome]int)
	falseNeg := make(map[models.Outcome]int)
	support := make(map[models.Outcome]int)

	for _, s := range samples {
		pred, err := ensemble.Predict(s.Features)
		if err != nil {
			return nil, err
		}
		support[s.Label]++
		if pred.Predicted == s.Label {
			correct++
			truePos[s.Label]++
		} else {
			falsePos[pred.Predicted]++
			falseNeg[s.Label]++
		}
	}

	perClass := make(map[models.Outcome]models.ClassMetrics, len(models.ClassOrder))
	for _, class := range models.ClassOrder {
		precision := ratio(truePos[class], truePos[class]+falsePos[class])
		recall := ratio(truePos[class], truePos[class]+falseNeg[class])
		perClass[class] = models.ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        f1Score(precision, recall),
			Support:   support[class],
		}
	}

	return &models.EvaluationReport{
		SampleCount: len(samples),
		Accuracy:    float64(correct) / float64(len(samples)),
		PerClass:    perClass,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// f1Score is the harmonic mean of precision and recall, 0 when both are 0.
func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
