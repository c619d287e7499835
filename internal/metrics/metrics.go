package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded per source scrape.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	SourceScrapes    *prometheus.CounterVec
	MetadataRequests *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flick_request_duration_seconds",
				Help:    "Time spent answering HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"route"},
		),
		SourceScrapes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_source_scrapes_total",
				Help: "Source scraper runs by outcome",
			},
			[]string{"source", "outcome"},
		),
		MetadataRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_metadata_requests_total",
				Help: "Metadata lookups by kind and result",
			},
			[]string{"kind", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.SourceScrapes,
		m.MetadataRequests,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) RecordSourceScrape(source, outcome string) {
	m.SourceScrapes.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) RecordMetadataRequest(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MetadataRequests.WithLabelValues(kind, status).Inc()
}
