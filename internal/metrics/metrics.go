package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps Prometheus collectors for flash-sentinel runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry               *prometheus.Registry
	runDurationSeconds     prometheus.Histogram
	apiRequestsTotal       *prometheus.CounterVec
	itemsFetchedTotal      *prometheus.CounterVec
	servicesTotal          *prometheus.GaugeVec
	runFailuresTotal       *prometheus.CounterVec
	lastSuccessfulRunGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flash_sentinel_run_duration_seconds",
			Help:    "Duration of collector runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		apiRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flash_sentinel_api_requests_total",
			Help: "Array API requests by endpoint and status class.",
		}, []string{"endpoint", "status"}),
		itemsFetchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flash_sentinel_items_fetched_total",
			Help: "Items fetched from the array by endpoint.",
		}, []string{"endpoint"}),
		servicesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flash_sentinel_services_total",
			Help: "Services emitted by domain and state.",
		}, []string{"domain", "state"}),
		runFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flash_sentinel_run_failures_total",
			Help: "Aborted runs by phase.",
		}, []string{"phase"}),
		lastSuccessfulRunGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flash_sentinel_last_successful_run_timestamp",
			Help: "Unix timestamp of the last successful run.",
		}),
	}

	registry.MustRegister(
		m.runDurationSeconds,
		m.apiRequestsTotal,
		m.itemsFetchedTotal,
		m.servicesTotal,
		m.runFailuresTotal,
		m.lastSuccessfulRunGauge,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRunDuration records the duration of a finished run.
func (m *Metrics) ObserveRunDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.runDurationSeconds.Observe(duration.Seconds())
}

// IncAPIRequests counts one request against endpoint.
func (m *Metrics) IncAPIRequests(endpoint string, status string) {
	if m == nil {
		return
	}
	m.apiRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// AddItemsFetched counts items returned by endpoint.
func (m *Metrics) AddItemsFetched(endpoint string, n int) {
	if m == nil {
		return
	}
	m.itemsFetchedTotal.WithLabelValues(endpoint).Add(float64(n))
}

// SetServicesTotal sets the services gauge for the given domain/state.
func (m *Metrics) SetServicesTotal(domain string, state string, value int) {
	if m == nil {
		return
	}
	m.servicesTotal.WithLabelValues(domain, state).Set(float64(value))
}

// IncRunFailures counts a run aborted during phase.
func (m *Metrics) IncRunFailures(phase string) {
	if m == nil {
		return
	}
	m.runFailuresTotal.WithLabelValues(phase).Inc()
}

// SetLastSuccessfulRunTimestamp sets the last successful run time.
func (m *Metrics) SetLastSuccessfulRunTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulRunGauge.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
