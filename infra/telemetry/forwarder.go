// Package telemetry contains the snapshot publishers and the bus forwarder
// that feeds them. Publishing is strictly best-effort: any failure is logged
// and dropped so it can never fail the mutation that triggered it.
package telemetry

import (
	"context"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/events"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	coretelemetry "github.com/mridultyagi687/TSGLogistics-sub000/core/telemetry"
	"github.com/mridultyagi687/TSGLogistics-sub000/internal/eventbus"
)

// LoadLister supplies the current loads for a snapshot.
type LoadLister interface {
	List(ctx context.Context) ([]model.Load, error)
}

// Forwarder subscribes to the internal event bus and publishes a snapshot
// after every transition or match event.
type Forwarder struct {
	bus     eventbus.EventBus
	loads   LoadLister
	pub     coretelemetry.Publisher
	log     logger.Logger
	timeout time.Duration
}

// NewForwarder creates a Forwarder. timeout bounds each snapshot build and
// publish; zero means five seconds.
func NewForwarder(bus eventbus.EventBus, loads LoadLister, pub coretelemetry.Publisher, log logger.Logger, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{bus: bus, loads: loads, pub: pub, log: log, timeout: timeout}
}

// Run consumes bus events until the context is cancelled or the bus closes.
func (f *Forwarder) Run(ctx context.Context) {
	sub := f.bus.Subscribe()
	defer f.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			f.handle(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (f *Forwarder) handle(ctx context.Context, ev eventbus.Event) {
	var trigger string
	var trips []string
	switch e := ev.(type) {
	case events.TransitionEvent:
		trigger = e.Trigger
		if e.Assignment.TripID != "" {
			trips = []string{e.Assignment.TripID}
		}
	case events.MatchEvent:
		trigger = "match"
	default:
		return
	}
	f.publish(ctx, trigger, trips)
}

func (f *Forwarder) publish(ctx context.Context, trigger string, trips []string) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	loads, err := f.loads.List(ctx)
	if err != nil {
		f.log.Warnf("telemetry snapshot build failed: %v", err)
		return
	}
	snap := coretelemetry.Snapshot{
		Loads:     loads,
		Trips:     trips,
		Timestamp: time.Now(),
		Trigger:   trigger,
	}
	if err := f.pub.PublishSnapshot(ctx, snap); err != nil {
		f.log.Warnf("telemetry publish failed: %v", err)
	}
}
