package config

import (
	"fmt"
	"time"
)

// EngineConfig tunes the reconciliation loop.
type EngineConfig struct {
	// IntervalSeconds is the gap between reconciliation cycles.
	IntervalSeconds int `json:"interval_seconds"`
	// OrgID is the owning organisation stamped on assignments whose load
	// carries no organisation of its own.
	OrgID string `json:"org_id"`
	// StrictTransitions rejects transitions outside the lifecycle table
	// before any write. Unset means strict.
	StrictTransitions *bool `json:"strict_transitions"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 30
	}
	if c.StrictTransitions == nil {
		strict := true
		c.StrictTransitions = &strict
	}
}

// Validate checks mandatory fields.
func (c EngineConfig) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive")
	}
	return nil
}

// Interval returns the cycle interval as a duration.
func (c EngineConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Strict reports whether transitions outside the lifecycle table are
// rejected.
func (c EngineConfig) Strict() bool {
	return c.StrictTransitions == nil || *c.StrictTransitions
}
