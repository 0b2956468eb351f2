package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ArticlesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_articles_ingested_total",
			Help: "Total articles ingested",
		},
		[]string{"status"},
	)

	ClassificationMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "horizon_classification_matches_per_article",
			Help:    "Number of indicator matches per article",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	ClassificationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "horizon_classification_confidence",
			Help:    "Match confidence distribution",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_pipeline_runs_total",
			Help: "Total aggregation pipeline runs",
		},
		[]string{"status"},
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "horizon_pipeline_duration_seconds",
			Help:    "Aggregation pipeline run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	IndicatorValuesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_indicator_values_written_total",
			Help: "Total indicator value rows written",
		},
	)

	InsightDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horizon_insight_duration_seconds",
			Help:    "Insight computation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"company_id"},
	)

	RisksDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_risks_detected_total",
			Help: "Total risks detected",
		},
	)

	OpportunitiesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_opportunities_detected_total",
			Help: "Total opportunities detected",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizon_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horizon_llm_fallbacks_total",
			Help: "Total recommendations that fell back to templates after an LLM failure",
		},
	)

	CascadeDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "horizon_cascade_depth",
			Help:    "Maximum depth reached per cascade simulation",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

func Init() {
	prometheus.MustRegister(ArticlesIngested)
	prometheus.MustRegister(ClassificationMatches)
	prometheus.MustRegister(ClassificationConfidence)
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(IndicatorValuesWritten)
	prometheus.MustRegister(InsightDuration)
	prometheus.MustRegister(RisksDetected)
	prometheus.MustRegister(OpportunitiesDetected)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(LLMFallbacks)
	prometheus.MustRegister(CascadeDepth)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
