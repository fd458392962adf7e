package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	validationTotal  *prometheus.CounterVec
	classifyTotal    *prometheus.CounterVec
	classifyDuration prometheus.Histogram
}

// NewMetrics creates the docgate collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docgate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"endpoint", "status"},
	)
	validationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docgate",
			Subsystem: "validate",
			Name:      "outcomes_total",
			Help:      "Structural validation outcomes by terminal state.",
		},
		[]string{"estado"},
	)
	classifyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docgate",
			Subsystem: "classify",
			Name:      "results_total",
			Help:      "Agent classification results by category.",
		},
		[]string{"result"},
	)
	classifyDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docgate",
			Subsystem: "classify",
			Name:      "duration_seconds",
			Help:      "End-to-end classification attempt duration.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 90, 120},
		},
	)

	registry.MustRegister(requestTotal, validationTotal, classifyTotal, classifyDuration)

	return &Metrics{
		registry:         registry,
		requestTotal:     requestTotal,
		validationTotal:  validationTotal,
		classifyTotal:    classifyTotal,
		classifyDuration: classifyDuration,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordRequest(endpoint string, status int) {
	m.requestTotal.WithLabelValues(endpoint, httpStatusLabel(status)).Inc()
}

func (m *Metrics) recordValidation(estado string) {
	m.validationTotal.WithLabelValues(estado).Inc()
}

func (m *Metrics) recordClassify(result string, elapsed time.Duration) {
	m.classifyTotal.WithLabelValues(result).Inc()
	m.classifyDuration.Observe(elapsed.Seconds())
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
