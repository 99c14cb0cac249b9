// Package metrics provides the centralized Prometheus metrics registry for
// the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ElMALIHI/footballai/internal/features"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	TrainingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "training_runs_total",
		Help:      "Total number of training runs by result",
	}, []string{"result"})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "predictions_total",
		Help:      "Total number of predictions served by model type",
	}, []string{"model_type"})
	SamplesExcludedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "samples_excluded_total",
		Help:      "Total number of training samples excluded due to feature errors",
	})
	MatchesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "matches_ingested_total",
		Help:      "Total number of match records upserted from the provider",
	})
	IngestionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "ingestion_errors_total",
		Help:      "Total number of ingestion errors",
	})
)

// Gauge metrics
var (
	ModelTestAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "footballai",
		Name:      "model_test_accuracy",
		Help:      "Held-out test accuracy of the most recently trained model",
	}, []string{"model_name", "model_type"})
	PersistedModels = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "footballai",
		Name:      "persisted_models",
		Help:      "Number of models currently persisted in the model store",
	})
)

// Histogram metrics
var (
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "footballai",
		Name:      "training_duration_seconds",
		Help:      "Duration of training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "footballai",
		Name:      "prediction_latency_seconds",
		Help:      "Latency of serving one prediction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(TrainingRunsTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(SamplesExcludedTotal)
		registry.MustRegister(MatchesIngestedTotal)
		registry.MustRegister(IngestionErrorsTotal)

		registry.MustRegister(ModelTestAccuracy)
		registry.MustRegister(PersistedModels)

		registry.MustRegister(TrainingDuration)
		registry.MustRegister(PredictionLatency)

		// Feature extraction metrics live with the extractor.
		registry.MustRegister(features.CacheHitsTotal)
		registry.MustRegister(features.CacheMissesTotal)
		registry.MustRegister(features.ExtractionsTotal)
		registry.MustRegister(features.ExtractionDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordTrainingRun records a completed training run.
func RecordTrainingRun(result string, durationSeconds float64) {
	TrainingRunsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		TrainingDuration.Observe(durationSeconds)
	}
}

// RecordPrediction records a served prediction.
func RecordPrediction(modelType string, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(modelType).Inc()
	PredictionLatency.Observe(durationSeconds)
}
