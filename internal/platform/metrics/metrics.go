package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the clip assembly service.
type Metrics struct {
	registry                   *prometheus.Registry
	requestsTotal              prometheus.Counter
	errorsTotal                prometheus.Counter
	candidatesBuiltTotal       prometheus.Counter
	clipsAssembledTotal        prometheus.Counter
	manifestFetchFailuresTotal prometheus.Counter
	segmentFetchFailuresTotal  prometheus.Counter
	droppedSecondsTotal        prometheus.Counter
	activeAssemblies           prometheus.Gauge
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	candidatesBuiltTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_candidates_built_total",
		Help: "Total number of detection candidates produced by clustering passes",
	})
	clipsAssembledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_clips_assembled_total",
		Help: "Total number of audio clips successfully assembled",
	})
	manifestFetchFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_manifest_fetch_failures_total",
		Help: "Total number of session manifests that failed to fetch or parse",
	})
	segmentFetchFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_segment_fetch_failures_total",
		Help: "Total number of audio segments that failed to fetch",
	})
	droppedSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydroclip_dropped_seconds_total",
		Help: "Total seconds of requested audio not covered by any surviving segment",
	})
	activeAssemblies := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hydroclip_active_assemblies",
		Help: "Number of clip assembly pipelines currently in flight",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		candidatesBuiltTotal,
		clipsAssembledTotal,
		manifestFetchFailuresTotal,
		segmentFetchFailuresTotal,
		droppedSecondsTotal,
		activeAssemblies,
	)

	return &Metrics{
		registry:                   registry,
		requestsTotal:              requestsTotal,
		errorsTotal:                errorsTotal,
		candidatesBuiltTotal:       candidatesBuiltTotal,
		clipsAssembledTotal:        clipsAssembledTotal,
		manifestFetchFailuresTotal: manifestFetchFailuresTotal,
		segmentFetchFailuresTotal:  segmentFetchFailuresTotal,
		droppedSecondsTotal:        droppedSecondsTotal,
		activeAssemblies:           activeAssemblies,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// AddCandidatesBuilt adds n to the candidates built counter.
func (m *Metrics) AddCandidatesBuilt(n int) {
	m.candidatesBuiltTotal.Add(float64(n))
}

// IncClipsAssembled increments the clips assembled counter.
func (m *Metrics) IncClipsAssembled() {
	m.clipsAssembledTotal.Inc()
}

// IncManifestFetchFailures increments the manifest fetch failure counter.
func (m *Metrics) IncManifestFetchFailures() {
	m.manifestFetchFailuresTotal.Inc()
}

// IncSegmentFetchFailures increments the segment fetch failure counter.
func (m *Metrics) IncSegmentFetchFailures() {
	m.segmentFetchFailuresTotal.Inc()
}

// AddDroppedSeconds adds n to the dropped seconds counter.
func (m *Metrics) AddDroppedSeconds(n int) {
	m.droppedSecondsTotal.Add(float64(n))
}

// SetActiveAssemblies sets the active assemblies gauge.
func (m *Metrics) SetActiveAssemblies(n int) {
	m.activeAssemblies.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
