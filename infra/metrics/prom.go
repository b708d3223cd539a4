package metrics

import (
	coremetrics "github.com/mridultyagi687/TSGLogistics-sub000/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records matching outcomes in Prometheus metrics.
type PromSink struct {
	matches  *prometheus.CounterVec
	scores   *prometheus.HistogramVec
	duration prometheus.Histogram
	sourcing prometheus.Gauge
	failed   prometheus.Counter
	skipped  prometheus.Counter
}

// NewPromSink registers match metrics on the default Prometheus registerer.
// The /metrics server is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_matches_total",
		Help: "Total number of load-vendor matches produced by reconciliation",
	}, []string{"org_id", "vendor_id"})
	scores := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sourcing_match_score",
		Help:    "Score of the winning candidate per match",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"org_id"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_cycle_duration_seconds",
		Help:    "Duration of one reconciliation cycle",
		Buckets: prometheus.DefBuckets,
	})
	sourcing := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sourcing_loads",
		Help: "Number of loads awaiting sourcing seen by the last cycle",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_load_failures_total",
		Help: "Loads that errored during a cycle and were skipped",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_loads_unmatched_total",
		Help: "Loads left for the next cycle because no candidate scored",
	})

	s := &PromSink{matches: matches, scores: scores, duration: duration, sourcing: sourcing, failed: failed, skipped: skipped}
	for _, c := range []prometheus.Collector{matches, scores, duration, sourcing, failed, skipped} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordMatchResults increments the match counter and observes scores.
func (s *PromSink) RecordMatchResults(res []coremetrics.MatchRecord) error {
	for _, r := range res {
		s.matches.WithLabelValues(r.OrgID, r.VendorID).Inc()
		s.scores.WithLabelValues(r.OrgID).Observe(r.Score)
	}
	return nil
}

// RecordCycle records cycle-level gauges and counters.
func (s *PromSink) RecordCycle(rec coremetrics.CycleRecord) error {
	s.duration.Observe(rec.Duration.Seconds())
	s.sourcing.Set(float64(rec.Sourcing))
	s.failed.Add(float64(rec.Failed))
	s.skipped.Add(float64(rec.Skipped))
	return nil
}
