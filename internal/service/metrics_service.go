package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the optimization engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec

	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	iterationsTotal *prometheus.CounterVec
	bestScore       *prometheus.GaugeVec
	violationCount  *prometheus.GaugeVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_jobs_total",
		Help: "Total optimization jobs by strategy and terminal status",
	}, []string{"strategy", "status"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_job_duration_seconds",
		Help:    "Wall-clock duration of optimization jobs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"strategy"})

	iterationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_iterations_total",
		Help: "Total optimizer iterations executed",
	}, []string{"strategy"})

	bestScore := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimizer_best_score",
		Help: "Best schedule score observed by the running job",
	}, []string{"strategy"})

	violationCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimizer_violations",
		Help: "Violation count of the best schedule observed by the running job",
	}, []string{"strategy"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration,
		jobsTotal, jobDuration, iterationsTotal, bestScore, violationCount, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		jobsTotal:       jobsTotal,
		jobDuration:     jobDuration,
		iterationsTotal: iterationsTotal,
		bestScore:       bestScore,
		violationCount:  violationCount,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveOptimizerProgress records a progress snapshot of a running job.
// Iterations is the delta since the previous snapshot.
func (m *MetricsService) ObserveOptimizerProgress(strategy string, iterations int, bestScore float64, violations int) {
	if m == nil {
		return
	}
	if iterations > 0 {
		m.iterationsTotal.WithLabelValues(strategy).Add(float64(iterations))
	}
	m.bestScore.WithLabelValues(strategy).Set(bestScore)
	m.violationCount.WithLabelValues(strategy).Set(float64(violations))
}

// ObserveOptimizerJob records a terminal job outcome.
func (m *MetricsService) ObserveOptimizerJob(strategy, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(strategy, status).Inc()
	m.jobDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}
