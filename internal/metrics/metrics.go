// Package metrics exposes Prometheus instrumentation for settlement runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSettled    = "settled"
	ResultIncomplete = "incomplete"
	ResultError      = "error"
)

// Metrics bundles settlement metrics. A nil *Metrics records nothing.
type Metrics struct {
	SettlementsTotal      *prometheus.CounterVec
	SettlementTransfers   prometheus.Histogram
	SettlementDuration    prometheus.Histogram
	DataConsistencyErrors prometheus.Counter
}

// New constructs metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SettlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splity_settlements_total",
				Help: "Total settlement runs by result",
			},
			[]string{"result"},
		),
		SettlementTransfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "splity_settlement_transfers",
			Help:    "Transfers suggested per settlement run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "splity_settlement_duration_seconds",
			Help:    "Settlement run duration including snapshot load",
			Buckets: prometheus.DefBuckets,
		}),
		DataConsistencyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splity_data_consistency_errors_total",
			Help: "Settlement runs whose records referenced unknown participants",
		}),
	}
	reg.MustRegister(
		m.SettlementsTotal,
		m.SettlementTransfers,
		m.SettlementDuration,
		m.DataConsistencyErrors,
	)
	return m
}

// ObserveSettlement records one settlement run.
func (m *Metrics) ObserveSettlement(result string, transfers int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SettlementsTotal.WithLabelValues(result).Inc()
	m.SettlementDuration.Observe(elapsed.Seconds())
	if result != ResultError {
		m.SettlementTransfers.Observe(float64(transfers))
	}
}

// IncDataConsistency counts a run with inconsistent input records.
func (m *Metrics) IncDataConsistency() {
	if m == nil {
		return
	}
	m.DataConsistencyErrors.Inc()
}
