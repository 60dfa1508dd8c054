// Package metrics exposes Prometheus collectors for exam activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exam_service"

// Metrics groups the collectors updated by handlers and middleware.
type Metrics struct {
	registry *prometheus.Registry

	Submissions        prometheus.Counter
	SubmissionConflict prometheus.Counter
	GradedPercentage   prometheus.Histogram
	SessionStarts      prometheus.Counter
	AssignmentChanges  *prometheus.CounterVec
	StatusChanges      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	MonitorClients     prometheus.Gauge
}

// New creates the collectors on a fresh registry along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Graded answer submissions stored.",
		}),
		SubmissionConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_conflicts_total",
			Help:      "Submissions rejected because a result already existed.",
		}),
		GradedPercentage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graded_percentage",
			Help:      "Distribution of percentage scores of stored results.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		SessionStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_starts_total",
			Help:      "Session start requests that returned a start time.",
		}),
		AssignmentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_changes_total",
			Help:      "Assignments created or removed.",
		}, []string{"action"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exam_status_changes_total",
			Help:      "Administrative status changes by target status.",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		MonitorClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_clients",
			Help:      "Open live monitor websocket connections.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submissions,
		m.SubmissionConflict,
		m.GradedPercentage,
		m.SessionStarts,
		m.AssignmentChanges,
		m.StatusChanges,
		m.HTTPRequests,
		m.HTTPDuration,
		m.MonitorClients,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
