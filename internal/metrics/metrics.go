package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the service. Each instance
// carries its own registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ingestTotal       *prometheus.CounterVec
	reviewTotal       *prometheus.CounterVec
	taxInferenceTotal prometheus.Counter
}

// New creates a Metrics instance with a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledgerlens",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledgerlens",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Subsystem: "bills",
			Name:      "ingest_total",
			Help:      "Total ingestion attempts by outcome.",
		},
		[]string{"outcome"},
	)
	reviewTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Subsystem: "bills",
			Name:      "reviews_total",
			Help:      "Total reconciliation reviews by verdict.",
		},
		[]string{"verdict"},
	)
	taxInferenceTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Subsystem: "bills",
			Name:      "tax_inference_total",
			Help:      "Total reviews that fell back to inferring tax from the claimed total.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ingestTotal,
		reviewTotal,
		taxInferenceTotal,
	)

	return &Metrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		ingestTotal:       ingestTotal,
		reviewTotal:       reviewTotal,
		taxInferenceTotal: taxInferenceTotal,
	}
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies for every handled request
func (m *Metrics) Middleware(next http.Handler) http.Handler {
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
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordIngest counts one ingestion attempt. Outcome is one of
// "accepted", "duplicate" or "failed".
func (m *Metrics) RecordIngest(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.ingestTotal.WithLabelValues(outcome).Inc()
}

// RecordReview counts one reconciliation review by verdict
func (m *Metrics) RecordReview(verdict string, taxInferred bool) {
	if verdict == "" {
		verdict = "unknown"
	}
	m.reviewTotal.WithLabelValues(verdict).Inc()
	if taxInferred {
		m.taxInferenceTotal.Inc()
	}
}

// normalizePath collapses bill ids so label cardinality stays bounded
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/api/bills/") {
		rest := strings.TrimPrefix(path, "/api/bills/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/api/bills/{id}" + rest[i:]
		}
		if rest != "" {
			return "/api/bills/{id}"
		}
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
