package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynresp_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dynresp_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	simulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynresp_simulations_total",
			Help: "Total number of simulation runs by outcome.",
		},
		[]string{"outcome"},
	)

	simulationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dynresp_simulation_duration_seconds",
			Help:    "Wall-clock duration of one simulation run in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	walkerDepositsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dynresp_walker_deposits_total",
			Help: "Total number of arc samples deposited across all runs.",
		},
	)

	batchWorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dynresp_batch_workers_active",
			Help: "Configured size of the batch realization worker pool.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(simulationsTotal)
	prometheus.MustRegister(simulationDurationSeconds)
	prometheus.MustRegister(walkerDepositsTotal)
	prometheus.MustRegister(batchWorkersActive)
}

// RecordSimulation records one completed simulation run.
func RecordSimulation(duration time.Duration, deposits int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	simulationsTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		simulationDurationSeconds.Observe(duration.Seconds())
		walkerDepositsTotal.Add(float64(deposits))
	}
}

// SetBatchWorkersActive records the configured worker pool size.
func SetBatchWorkersActive(n int) {
	batchWorkersActive.Set(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths the server registers.
var knownRoutes = map[string]bool{
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
	"/api/v1/simulate": true,
}

// normalizeRoute collapses unknown paths to a single "other" label so
// that scanners and bots cannot inflate metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
