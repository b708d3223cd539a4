// Package telemetry defines the fire-and-forget snapshot sink notified after
// every externally visible load or assignment mutation. Publish failures are
// never allowed to fail the triggering operation.
package telemetry

import (
	"context"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/factory"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// Snapshot is the payload pushed to downstream dashboards.
type Snapshot struct {
	Loads     []model.Load `json:"loads"`
	Trips     []string     `json:"trips"`
	Timestamp time.Time    `json:"timestamp"`
	Trigger   string       `json:"trigger"`
}

// Publisher pushes snapshots to a pub/sub channel.
type Publisher interface {
	PublishSnapshot(ctx context.Context, s Snapshot) error
	Close() error
}

// NopPublisher discards snapshots.
type NopPublisher struct{}

func (NopPublisher) PublishSnapshot(context.Context, Snapshot) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// Config defines settings for telemetry publishers.
type Config struct {
	Publishers []factory.ModuleConfig `json:"publishers"`
}

var publisherRegistry = factory.NewRegistry[Publisher]()

// RegisterPublisher adds a publisher factory identified by name.
func RegisterPublisher(name string, f factory.Factory[Publisher]) error {
	return publisherRegistry.Register(name, f)
}

// NewPublisher creates a Publisher from the provided configuration. With no
// publishers configured a NopPublisher is returned; with several, a fan-out.
func NewPublisher(cfgs []factory.ModuleConfig) (Publisher, error) {
	if len(cfgs) == 0 {
		return NopPublisher{}, nil
	}
	if len(cfgs) == 1 {
		return publisherRegistry.Create(cfgs[0])
	}
	pubs := make([]Publisher, len(cfgs))
	for i, c := range cfgs {
		p, err := publisherRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		pubs[i] = p
	}
	return MultiPublisher(pubs), nil
}

// MultiPublisher fans snapshots out to several publishers. Every publisher is
// attempted; the first error is returned after all have run.
type MultiPublisher []Publisher

func (m MultiPublisher) PublishSnapshot(ctx context.Context, s Snapshot) error {
	var first error
	for _, p := range m {
		if err := p.PublishSnapshot(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiPublisher) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
