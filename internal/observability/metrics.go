package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the oracle backend.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	RPCCalls    *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	SnapshotReads   *prometheus.CounterVec
	SourceFallbacks *prometheus.CounterVec
	RowsSkipped     prometheus.Counter
}

// NewMetrics registers the oracle metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_http_requests_total",
			Help: "HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_http_request_duration_seconds",
			Help:    "HTTP request duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_chain_rpc_calls_total",
			Help: "Chain RPC calls, by method and outcome.",
		}, []string{"method", "outcome"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_chain_rpc_duration_seconds",
			Help:    "Chain RPC call duration.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		SnapshotReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_snapshot_reads_total",
			Help: "Snapshot file reads, by file and outcome.",
		}, []string{"file", "outcome"}),
		SourceFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_source_fallbacks_total",
			Help: "Reconciliation source substitutions, by requested mode and fallback.",
		}, []string{"mode", "fallback"}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "oracle_ledger_rows_skipped_total",
			Help: "Live ledger rows dropped because the transaction could not be derived.",
		}),
	}
}

// ObserveRPC records one chain RPC call. Safe on a nil receiver so callers
// can run without metrics wired.
func (m *Metrics) ObserveRPC(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RPCCalls.WithLabelValues(method, outcome).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveSnapshotRead records one snapshot file read.
func (m *Metrics) ObserveSnapshotRead(file string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SnapshotReads.WithLabelValues(file, outcome).Inc()
}

// ObserveFallback records one source substitution.
func (m *Metrics) ObserveFallback(mode, fallback string) {
	if m == nil {
		return
	}
	m.SourceFallbacks.WithLabelValues(mode, fallback).Inc()
}

// ObserveSkippedRow counts one undeliverable live row.
func (m *Metrics) ObserveSkippedRow() {
	if m == nil {
		return
	}
	m.RowsSkipped.Inc()
}
