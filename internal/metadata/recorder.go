package metadata

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

/*
Metadata Collected
- Fetch timestamps, durations and HTTP status codes
- Crawl depth
- Error causes per pipeline stage
- Written artifacts (index file, archived pages)

Metadata is write-only.
No component may read metadata to influence crawl decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		crawlDepth int,
	)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type CrawlFinalizer interface {
	RecordFinalCrawlStats(
		totalPages int,
		totalErrors int,
		duration time.Duration,
	)
}

/*
Recorder captures structured crawl events as zap log entries and
Prometheus metrics. Every entry carries the crawl ID the recorder was
created with.

It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events from one goroutine are recorded in the order they are received.
- No global ordering across fetch goroutines is guaranteed.
*/
type Recorder struct {
	logger  *zap.Logger
	crawlID string
	metrics recorderMetrics
}

type recorderMetrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	errors        *prometheus.CounterVec
	artifacts     *prometheus.CounterVec
	crawlPages    prometheus.Gauge
	crawlErrors   prometheus.Gauge
	crawlDuration prometheus.Gauge
}

// NewRecorder builds a Recorder logging to logger and registering its metrics
// on registerer. A nil logger discards logs; a nil registerer keeps the
// metrics in a private registry.
func NewRecorder(logger *zap.Logger, registerer prometheus.Registerer) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	crawlID := uuid.NewString()
	return &Recorder{
		logger:  logger.With(zap.String("crawl_id", crawlID)),
		crawlID: crawlID,
		metrics: newRecorderMetrics(registerer),
	}
}

func newRecorderMetrics(registerer prometheus.Registerer) recorderMetrics {
	factory := promauto.With(registerer)
	return recorderMetrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesearch_fetches_total",
			Help: "Page fetches by HTTP status class.",
		}, []string{"status_class"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitesearch_fetch_duration_seconds",
			Help:    "Wall time of a single page fetch.",
			Buckets: prometheus.DefBuckets,
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesearch_errors_total",
			Help: "Recorded errors by package and cause.",
		}, []string{"package", "cause"}),
		artifacts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesearch_artifacts_total",
			Help: "Written artifacts by kind.",
		}, []string{"kind"}),
		crawlPages: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitesearch_crawl_pages",
			Help: "Pages collected by the last finished crawl.",
		}),
		crawlErrors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitesearch_crawl_errors",
			Help: "Failed pages of the last finished crawl.",
		}),
		crawlDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitesearch_crawl_duration_seconds",
			Help: "Duration of the last finished crawl.",
		}),
	}
}

func (r *Recorder) CrawlID() string {
	return r.crawlID
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("error", errorString),
	}
	r.logger.Warn("pipeline error", append(fields, attrFields(attrs)...)...)
	r.metrics.errors.WithLabelValues(packageName, cause.String()).Inc()
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
	r.logger.Debug("fetch",
		zap.String(string(AttrURL), fetchUrl),
		zap.Int(string(AttrHTTPStatus), httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_type", contentType),
		zap.Int(string(AttrDepth), crawlDepth),
	)
	r.metrics.fetches.WithLabelValues(statusClass(httpStatus)).Inc()
	r.metrics.fetchDuration.Observe(duration.Seconds())
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String(string(AttrWritePath), path),
	}
	r.logger.Info("artifact written", append(fields, attrFields(attrs)...)...)
	r.metrics.artifacts.WithLabelValues(string(kind)).Inc()
}

/*
RecordFinalCrawlStats records a terminal, derived summary of a completed crawl.

Contract:
  - MUST be called exactly once per crawl execution.
  - MUST be called only after crawl termination.
  - The provided stats MUST be derived from scheduler state,
    not accumulated incrementally via the recorder.
*/
func (r *Recorder) RecordFinalCrawlStats(
	totalPages int,
	totalErrors int,
	duration time.Duration,
) {
	stats := crawlStats{
		totalPages:  totalPages,
		totalErrors: totalErrors,
		duration:    duration,
	}

	r.metrics.crawlPages.Set(float64(stats.totalPages))
	r.metrics.crawlErrors.Set(float64(stats.totalErrors))
	r.metrics.crawlDuration.Set(stats.duration.Seconds())
	r.logger.Info("crawl finished",
		zap.Int("total_pages", stats.totalPages),
		zap.Int("total_errors", stats.totalErrors),
		zap.Int64("duration_ms", stats.duration.Milliseconds()),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

func statusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// NoopSink, struct that implements MetadataSink and CrawlFinalizer but does nothing
// Scheduler (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	crawlDepth int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordFinalCrawlStats(totalPages int, totalErrors int, duration time.Duration) {}
