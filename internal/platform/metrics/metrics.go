package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProfilesCreated  prometheus.Counter
	RecordsCreated   prometheus.Counter
	AccessGrants     prometheus.Counter
	AccessRevokes    prometheus.Counter
	RequestsResolved *prometheus.CounterVec
	AuditDropped     prometheus.Counter
	RequestLatency   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_profiles_created_total",
			Help: "Total number of user profiles created",
		}),
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_records_created_total",
			Help: "Total number of records and folders created",
		}),
		AccessGrants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_access_grants_total",
			Help: "Total number of access grants",
		}),
		AccessRevokes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_access_revokes_total",
			Help: "Total number of access revocations",
		}),
		RequestsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "healthchain_access_requests_resolved_total",
			Help: "Access requests resolved, labelled by outcome",
		}, []string{"outcome"}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "healthchain_audit_events_dropped_total",
			Help: "Audit events dropped because the worker inbox was full",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthchain_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}
