// internal/app/system/metrics/metrics.go
// Package metrics exposes Prometheus counters for the verification, room,
// import and reconciliation flows.
//
// All methods are safe on a nil *Metrics so services can be built without
// metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clanverify"

// Verification outcomes.
const (
	OutcomeIssued      = "issued"
	OutcomeVerified    = "verified"
	OutcomeWrongCode   = "wrong_code"
	OutcomeExpired     = "expired"
	OutcomeExhausted   = "exhausted"
	OutcomeEmailFailed = "email_failed"
	OutcomeRoleFailed  = "role_failed"
	OutcomeCancelled   = "cancelled"
)

// Room actions.
const (
	RoomCreated      = "created"
	RoomReused       = "reused"
	RoomDeleted      = "deleted"
	RoomDeleteFailed = "delete_failed"
)

// Metrics holds the application collectors.
type Metrics struct {
	registry      *prometheus.Registry
	verifications *prometheus.CounterVec
	rooms         *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	roleRestores  *prometheus.CounterVec
	purged        prometheus.Counter
	jobDuration   *prometheus.HistogramVec
	jobErrors     *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification flow events by outcome.",
		}, []string{"outcome"}),
		rooms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clan_rooms_total",
			Help:      "Temporary clan voice room actions.",
		}, []string{"action"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Mentee CSV rows by import result.",
		}, []string{"result"}),
		roleRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_restores_total",
			Help:      "Drift reconciliation role checks by result.",
		}, []string{"result"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_purged_total",
			Help:      "Terminal verification requests removed by retention.",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job run time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_errors_total",
			Help:      "Scheduled job runs that returned an error.",
		}, []string{"job"}),
	}
	reg.MustRegister(
		m.verifications, m.rooms, m.importRows, m.roleRestores,
		m.purged, m.jobDuration, m.jobErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Verification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Room(action string) {
	if m == nil {
		return
	}
	m.rooms.WithLabelValues(action).Inc()
}

func (m *Metrics) ImportRows(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) RoleRestore(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.roleRestores.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) Purged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

// ObserveJob records one scheduled job run.
func (m *Metrics) ObserveJob(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.jobErrors.WithLabelValues(job).Inc()
	}
}
