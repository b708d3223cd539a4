// Package metrics defines the sink contract used to record matching outcomes.
// Sinks are pluggable via the factory registry; PromSink and InfluxSink live
// in infra/metrics and can be combined with NewMultiSink.
package metrics

import "time"

// MatchRecord is one load-vendor match produced by a reconciliation cycle.
type MatchRecord struct {
	LoadID       string
	VendorID     string
	AssignmentID string
	OrgID        string
	Score        float64
	MatchedAt    time.Time
}

// CycleRecord summarises one reconciliation cycle.
type CycleRecord struct {
	Started  time.Time
	Duration time.Duration
	Sourcing int
	Vendors  int
	Matched  int
	Skipped  int
	Failed   int
}

// MetricsSink records matching outcomes for observability purposes.
type MetricsSink interface {
	RecordMatchResults(results []MatchRecord) error
	RecordCycle(rec CycleRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordMatchResults([]MatchRecord) error { return nil }
func (NopSink) RecordCycle(CycleRecord) error          { return nil }
