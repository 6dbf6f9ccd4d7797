package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records analysis activity for the /metrics endpoint.
type Collector interface {
	AnalysisStarted(mediaType string)
	AnalysisCompleted(mediaType string, model string, elapsed time.Duration)
	AnalysisFailed(mediaType string, reason string)
	ProviderFallback(fromModel string)
	BatchProcessed(size int, succeeded int)
	UploadReceived(mediaType string, sizeBytes int64)
	Handler() http.Handler
}

// PrometheusCollector implements Collector with prometheus counters
// and histograms.
type PrometheusCollector struct {
	analysesStarted   *prometheus.CounterVec
	analysesCompleted *prometheus.CounterVec
	analysesFailed    *prometheus.CounterVec
	analysisDuration  *prometheus.HistogramVec
	providerFallbacks *prometheus.CounterVec
	batchSize         prometheus.Histogram
	batchItemsFailed  prometheus.Counter
	uploadSizeBytes   *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		analysesStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialens_analyses_started_total",
				Help: "Total number of analyses started",
			},
			[]string{"media_type"},
		),
		analysesCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialens_analyses_completed_total",
				Help: "Total number of analyses completed successfully",
			},
			[]string{"media_type", "model"},
		),
		analysesFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialens_analyses_failed_total",
				Help: "Total number of failed analyses",
			},
			[]string{"media_type", "reason"},
		),
		analysisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medialens_analysis_duration_seconds",
				Help:    "Time taken to complete an analysis",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
			},
			[]string{"media_type"},
		),
		providerFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialens_provider_fallbacks_total",
				Help: "Total number of vision provider fallbacks",
			},
			[]string{"from_model"},
		),
		batchSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "medialens_batch_size",
				Help:    "Number of items per batch request",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		batchItemsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "medialens_batch_items_failed_total",
				Help: "Total number of failed batch items",
			},
		),
		uploadSizeBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medialens_upload_size_bytes",
				Help:    "Size of uploaded media files in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
			},
			[]string{"media_type"},
		),
	}
}

func (c *PrometheusCollector) AnalysisStarted(mediaType string) {
	c.analysesStarted.WithLabelValues(mediaType).Inc()
}

func (c *PrometheusCollector) AnalysisCompleted(mediaType string, model string, elapsed time.Duration) {
	c.analysesCompleted.WithLabelValues(mediaType, model).Inc()
	c.analysisDuration.WithLabelValues(mediaType).Observe(elapsed.Seconds())
}

func (c *PrometheusCollector) AnalysisFailed(mediaType string, reason string) {
	c.analysesFailed.WithLabelValues(mediaType, reason).Inc()
}

func (c *PrometheusCollector) ProviderFallback(fromModel string) {
	c.providerFallbacks.WithLabelValues(fromModel).Inc()
}

func (c *PrometheusCollector) BatchProcessed(size int, succeeded int) {
	c.batchSize.Observe(float64(size))
	if failed := size - succeeded; failed > 0 {
		c.batchItemsFailed.Add(float64(failed))
	}
}

func (c *PrometheusCollector) UploadReceived(mediaType string, sizeBytes int64) {
	c.uploadSizeBytes.WithLabelValues(mediaType).Observe(float64(sizeBytes))
}

func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// NoOpCollector discards all measurements. Used in tests and when
// metrics are disabled.
type NoOpCollector struct{}

func (c *NoOpCollector) AnalysisStarted(mediaType string) {}

func (c *NoOpCollector) AnalysisCompleted(mediaType string, model string, elapsed time.Duration) {}

func (c *NoOpCollector) AnalysisFailed(mediaType string, reason string) {}

func (c *NoOpCollector) ProviderFallback(fromModel string) {}

func (c *NoOpCollector) BatchProcessed(size int, succeeded int) {}

func (c *NoOpCollector) UploadReceived(mediaType string, sizeBytes int64) {}

func (c *NoOpCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Metrics collection is disabled"))
	})
}
