package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryRequestsTotal    *prometheus.CounterVec
	queryRetrievedSources *prometheus.HistogramVec
	queryConfidence       *prometheus.HistogramVec
	queryDuration         *prometheus.HistogramVec
	bulkRunsTotal         *prometheus.CounterVec
	bulkItemsTotal        *prometheus.CounterVec
	bulkDuration          *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rfp",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfp",
			Subsystem: "pipeline",
			Name:      "query_requests_total",
			Help:      "Total completed answer pipeline runs by status.",
		},
		[]string{"service", "status"},
	)
	queryRetrievedSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfp",
			Subsystem: "pipeline",
			Name:      "retrieved_sources",
			Help:      "Distribution of fused retrieval hits per successful query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	queryConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfp",
			Subsystem: "pipeline",
			Name:      "answer_confidence",
			Help:      "Distribution of answer confidence scores.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfp",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Answer pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	bulkRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfp",
			Subsystem: "bulk",
			Name:      "runs_total",
			Help:      "Total completed bulk runs.",
		},
		[]string{"service"},
	)
	bulkItemsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfp",
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Total bulk questions processed by item status.",
		},
		[]string{"service", "status"},
	)
	bulkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfp",
			Subsystem: "bulk",
			Name:      "run_duration_seconds",
			Help:      "Bulk run duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryRequestsTotal,
		queryRetrievedSources,
		queryConfidence,
		queryDuration,
		bulkRunsTotal,
		bulkItemsTotal,
		bulkDuration,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		queryRequestsTotal:    queryRequestsTotal,
		queryRetrievedSources: queryRetrievedSources,
		queryConfidence:       queryConfidence,
		queryDuration:         queryDuration,
		bulkRunsTotal:         bulkRunsTotal,
		bulkItemsTotal:        bulkItemsTotal,
		bulkDuration:          bulkDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/imports/"):
		return "/v1/imports/{import_id}"
	case strings.HasPrefix(path, "/v1/bulk/files/"):
		return "/v1/bulk/files/{file_name}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordQuery(service, status string, sourceCount int, confidence float64, duration time.Duration) {
	m.queryRequestsTotal.WithLabelValues(service, status).Inc()
	if status == "success" {
		m.queryRetrievedSources.WithLabelValues(service).Observe(float64(sourceCount))
		m.queryConfidence.WithLabelValues(service).Observe(confidence)
	}
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordBulkRun(service string, succeeded, failed int, duration time.Duration) {
	m.bulkRunsTotal.WithLabelValues(service).Inc()
	m.bulkItemsTotal.WithLabelValues(service, "success").Add(float64(succeeded))
	m.bulkItemsTotal.WithLabelValues(service, "error").Add(float64(failed))
	m.bulkDuration.WithLabelValues(service).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
