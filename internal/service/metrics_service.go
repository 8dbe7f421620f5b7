package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	launchesTotal    *prometheus.CounterVec
	scoresTotal      *prometheus.CounterVec
	lineItemsCreated prometheus.Counter
	lmsCallDuration  *prometheus.HistogramVec
}

// NewMetricsService registers the gateway's Prometheus collectors.
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

	launchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lti_launches_total",
		Help: "Total validated launches by resolved role and intent",
	}, []string{"role", "intent"})

	scoresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lti_scores_submitted_total",
		Help: "Total score submissions by outcome",
	}, []string{"outcome"})

	lineItemsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lti_line_items_created_total",
		Help: "Total line items created on behalf of platforms",
	})

	lmsCallDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lms_call_duration_seconds",
		Help:    "Duration of outbound platform service calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, launchesTotal, scoresTotal, lineItemsCreated, lmsCallDuration, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		launchesTotal:    launchesTotal,
		scoresTotal:      scoresTotal,
		lineItemsCreated: lineItemsCreated,
		lmsCallDuration:  lmsCallDuration,
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

// ObserveHTTPRequest records per-route request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordLaunch counts one validated launch.
func (m *MetricsService) RecordLaunch(role, intent string) {
	if m == nil {
		return
	}
	m.launchesTotal.WithLabelValues(role, intent).Inc()
}

// RecordGrade counts one score submission attempt.
func (m *MetricsService) RecordGrade(success bool) {
	if m == nil {
		return
	}
	outcome := "error"
	if success {
		outcome = "ok"
	}
	m.scoresTotal.WithLabelValues(outcome).Inc()
}

// RecordLineItemCreated counts one gradebook column created by the gateway.
func (m *MetricsService) RecordLineItemCreated() {
	if m == nil {
		return
	}
	m.lineItemsCreated.Inc()
}

// ObserveLMSCall records timing for one outbound platform service call.
func (m *MetricsService) ObserveLMSCall(service string, duration time.Duration) {
	if m == nil {
		return
	}
	m.lmsCallDuration.WithLabelValues(service).Observe(duration.Seconds())
}
