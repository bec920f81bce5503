package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records catalog feed ingestion.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	files    *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of sync runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"run"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_run_success_total",
			Help: "Successful sync runs.",
		}, []string{"run"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_run_failure_total",
			Help: "Failed sync runs.",
		}, []string{"run"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_rows_updated_total",
			Help: "Product rows updated by feed kind.",
		}, []string{"feed"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_files_processed_total",
			Help: "Update files applied by feed kind.",
		}, []string{"feed"}),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.rows, m.files)
	return m
}

// ObserveRun records the duration and outcome of a run.
func (m *SyncMetrics) ObserveRun(run string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	run = normalizeLabel(run)
	m.duration.WithLabelValues(run).Observe(duration.Seconds())
	if err != nil {
		m.failure.WithLabelValues(run).Inc()
		return
	}
	m.success.WithLabelValues(run).Inc()
}

// AddRows adds n updated rows for the feed.
func (m *SyncMetrics) AddRows(feed string, n int) {
	if m == nil || m.rows == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(feed)).Add(float64(n))
}

// IncFiles counts one applied update file for the feed.
func (m *SyncMetrics) IncFiles(feed string) {
	if m == nil || m.files == nil {
		return
	}
	m.files.WithLabelValues(normalizeLabel(feed)).Inc()
}
