package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "purifier"

// Metrics counts accounting events
type Metrics struct {
	registry       *prometheus.Registry
	registrations  prometheus.Counter
	recharges      *prometheus.CounterVec
	readings       *prometheus.CounterVec
	operationFails *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Customers registered.",
		}),
		recharges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recharges_total",
			Help:      "Recharges by mode and whether the cycle was extended.",
		}, []string{"mode", "extended"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_readings_total",
			Help:      "Usage readings applied, by provenance.",
		}, []string{"source"}),
		operationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed accounting operations by operation and error code.",
		}, []string{"operation", "code"}),
	}
	m.registry.MustRegister(m.registrations, m.recharges, m.readings, m.operationFails)
	return m
}

// Registered counts a customer registration
func (m *Metrics) Registered() {
	m.registrations.Inc()
}

// Recharged counts a recharge by mode
func (m *Metrics) Recharged(mode string, extended bool) {
	m.recharges.WithLabelValues(mode, strconv.FormatBool(extended)).Inc()
}

// ReadingApplied counts a usage reading by source
func (m *Metrics) ReadingApplied(source string) {
	m.readings.WithLabelValues(source).Inc()
}

// Failed counts a failed operation by error code
func (m *Metrics) Failed(operation, code string) {
	m.operationFails.WithLabelValues(operation, code).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
