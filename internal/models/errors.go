package models

import "errors"

// Sentinel errors for the prediction core. Callers match with errors.Is and
// decide retry vs. abort from the kind alone.
var (
	// ErrInsufficientData indicates a training or evaluation set below the
	// minimum sample threshold. Fatal to that operation, never retried
	// automatically.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFeatureGeneration indicates feature extraction failed for a single
	// sample. Recovered by excluding the sample; never aborts a batch.
	ErrFeatureGeneration = errors.New("feature generation failed")

	// ErrModelNotFound indicates a load/predict/evaluate against an unknown
	// model name.
	ErrModelNotFound = errors.New("model not found")

	// ErrTrainingTimeout indicates the wall-clock training budget was
	// exceeded. No model is persisted.
	ErrTrainingTimeout = errors.New("training timeout")

	// ErrSerialization indicates a corrupt or unreadable persisted model.
	ErrSerialization = errors.New("model serialization failed")

	// ErrNotFound indicates a missing database record.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidOptions indicates training options failed validation.
	ErrInvalidOptions = errors.New("invalid training options")
)
