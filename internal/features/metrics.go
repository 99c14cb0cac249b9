package features

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for feature extraction. Registered by the central
// registry in internal/metrics.
var (
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "feature_cache_hits_total",
		Help:      "Total number of feature cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "feature_cache_misses_total",
		Help:      "Total number of feature cache misses",
	})
	ExtractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "footballai",
		Name:      "feature_extractions_total",
		Help:      "Total number of feature vector extractions by result",
	}, []string{"result"})
	ExtractionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "footballai",
		Name:      "feature_extraction_duration_seconds",
		Help:      "Duration of feature vector extraction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)
