// Package metrics registers the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the service records into.
type Metrics struct {
	JobsCreated prometheus.Counter
	JobsPurged  prometheus.Counter
	JobsFailed  prometheus.Counter
	TrackedJobs prometheus.Gauge

	ProviderRequests        *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on reg. Passing nil registers on
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "diarist_jobs_created_total",
			Help: "Total number of transcription jobs registered",
		}),
		JobsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "diarist_jobs_purged_total",
			Help: "Total number of jobs reclaimed by the retention sweep",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "diarist_jobs_failed_total",
			Help: "Total number of jobs that ended in provider-reported error",
		}),
		TrackedJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "diarist_tracked_jobs",
			Help: "Current number of jobs in the registry",
		}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diarist_provider_requests_total",
			Help: "Total number of calls to the transcription provider",
		}, []string{"operation", "outcome"}),
		ProviderRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "diarist_provider_request_duration_seconds",
			Help:    "Duration of transcription provider calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"operation"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "diarist_http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "diarist_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// RecordProviderCall records one provider round trip.
func (m *Metrics) RecordProviderCall(operation string, ok bool, seconds float64) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.ProviderRequests.WithLabelValues(operation, outcome).Inc()
	m.ProviderRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
