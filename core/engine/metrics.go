package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cycleDuration   prometheus.Histogram
	cyclesSkipped   *prometheus.CounterVec
	loadsMatched    prometheus.Counter
	loadsUnmatched  prometheus.Counter
	loadFailures    prometheus.Counter
	sourcingBacklog prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Gauge) {
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_cycle_duration_seconds",
			Help:    "Duration of a full reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)
	skip := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cycles_skipped_total",
			Help: "Number of cycles skipped before doing any work",
		},
		[]string{"reason"},
	)
	matched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_loads_matched_total",
			Help: "Number of loads matched to a vendor",
		},
	)
	unmatched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_loads_unmatched_total",
			Help: "Number of loads left unmatched for lack of eligible candidates",
		},
	)
	failed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_load_failures_total",
			Help: "Number of loads whose matching attempt failed",
		},
	)
	backlog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_sourcing_backlog",
			Help: "Number of loads awaiting sourcing at the start of the last cycle",
		},
	)
	return dur, skip, matched, unmatched, failed, backlog
}

func init() {
	cycleDuration, cyclesSkipped, loadsMatched, loadsUnmatched, loadFailures, sourcingBacklog = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cycleDuration, cyclesSkipped, loadsMatched, loadsUnmatched, loadFailures, sourcingBacklog)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	cycleDuration, cyclesSkipped, loadsMatched, loadsUnmatched, loadFailures, sourcingBacklog = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
