// Package events defines the payloads published on the internal event bus.
// Subscribers include the telemetry forwarder and the metrics collector.
package events

import (
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// TransitionEvent is published after every externally visible assignment
// transition, whether driven by the reconciliation loop or an operator.
type TransitionEvent struct {
	Assignment model.Assignment
	Event      model.AssignmentEvent
	LoadID     string
	Trigger    string
}

// MatchEvent is published when a reconciliation cycle links a load to a
// freshly created assignment.
type MatchEvent struct {
	LoadID       string
	AssignmentID string
	VendorID     string
	Score        float64
}

// CycleEvent summarises one reconciliation cycle.
type CycleEvent struct {
	Started  time.Time
	Duration time.Duration
	Sourcing int
	Matched  int
	Skipped  int
	Failed   int
}
