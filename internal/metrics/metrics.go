// Package metrics defines the Prometheus instruments of the service. A nil
// *Metrics, or one built without a registerer, records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument.
type Metrics struct {
	transitions   *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchSize     *prometheus.HistogramVec
	historyWrites *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	jobDuration   *prometheus.HistogramVec
	jobSuccess    *prometheus.CounterVec
	jobFailure    *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_transitions_total",
			Help: "Committed assignment status transitions.",
		}, []string{"from", "to", "via"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_batches_total",
			Help: "Batch approve/reject operations by outcome.",
		}, []string{"op", "outcome"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assignment_batch_size",
			Help:    "Number of assignments in committed batches.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}, []string{"op"}),
		historyWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_history_entries_total",
			Help: "History entries appended, by action.",
		}, []string{"action"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pending_count_cache_lookups_total",
			Help: "Pending-count cache lookups by result.",
		}, []string{"result"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_sink_failures_total",
			Help: "Audit events a sink failed to record.",
		}, []string{"sink"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success",
			Help: "Successful scheduled job executions.",
		}, []string{"job"}),
		jobFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure",
			Help: "Failed scheduled job executions.",
		}, []string{"job"}),
	}
	reg.MustRegister(
		m.transitions, m.batches, m.batchSize, m.historyWrites, m.cacheLookups,
		m.auditFailures, m.httpRequests, m.httpDuration,
		m.jobDuration, m.jobSuccess, m.jobFailure,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Transition counts one committed status change.
func (m *Metrics) Transition(from, to, via string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(via)).Inc()
}

// Batch records a batch operation. size is only observed on success.
func (m *Metrics) Batch(op string, size int, err error) {
	if m == nil || m.batches == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = "failed"
	}
	m.batches.WithLabelValues(normalizeLabel(op), outcome).Inc()
	if err == nil {
		m.batchSize.WithLabelValues(normalizeLabel(op)).Observe(float64(size))
	}
}

// HistoryEntry counts one appended history entry.
func (m *Metrics) HistoryEntry(action string) {
	if m == nil || m.historyWrites == nil {
		return
	}
	m.historyWrites.WithLabelValues(normalizeLabel(action)).Inc()
}

// CacheLookup counts a pending-count cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// AuditFailure counts an audit event a sink dropped.
func (m *Metrics) AuditFailure(sink string) {
	if m == nil || m.auditFailures == nil {
		return
	}
	m.auditFailures.WithLabelValues(normalizeLabel(sink)).Inc()
}

// Request records one served HTTP request.
func (m *Metrics) Request(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Job records one scheduled job run.
func (m *Metrics) Job(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.jobFailure.WithLabelValues(job).Inc()
		return
	}
	m.jobSuccess.WithLabelValues(job).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
