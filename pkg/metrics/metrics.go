// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the service collectors around one registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration prometheus.Histogram
	mediaEntriesTotal  prometheus.Counter
	enrichmentsTotal   *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servestream_resolutions_total",
				Help: "Total number of URI resolutions by outcome",
			},
			[]string{"action"}, // action: undetermined, browse, play
		),
		resolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "servestream_resolution_duration_seconds",
				Help:    "Time taken to resolve a URI",
				Buckets: prometheus.DefBuckets,
			},
		),
		mediaEntriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "servestream_media_entries_total",
				Help: "Total number of playlist entries stored",
			},
		),
		enrichmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servestream_enrichments_total",
				Help: "Total number of metadata enrichment attempts by result",
			},
			[]string{"result"}, // result: updated, empty, failed
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servestream_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "route", "status_code"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.resolutionsTotal,
		m.resolutionDuration,
		m.mediaEntriesTotal,
		m.enrichmentsTotal,
		m.httpRequestsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewDefault builds a fresh registry carrying the Go and process collectors.
func NewDefault() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(registry)
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordResolution(action string, seconds float64) {
	if m == nil {
		return
	}
	m.resolutionsTotal.WithLabelValues(action).Inc()
	m.resolutionDuration.Observe(seconds)
}

func (m *Metrics) RecordMediaEntries(n int) {
	if m == nil {
		return
	}
	m.mediaEntriesTotal.Add(float64(n))
}

func (m *Metrics) RecordEnrichment(result string) {
	if m == nil {
		return
	}
	m.enrichmentsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
}
