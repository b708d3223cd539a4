// Package propagation keeps the load's cached assignment sub-state consistent
// with the assignment store's current truth. The three operations here are
// the only way that sub-state may be mutated.
package propagation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// ErrStaleWrite is returned when a propagation write carries a lockedAt stamp
// older than one already applied for the same load.
var ErrStaleWrite = errors.New("propagation: stale write skipped")

// Propagator mutates a load's assignment sub-state. Link sets the full
// snapshot including the assignment pointer; UpdateStatus changes status and
// metadata while leaving the pointer alone; Clear resets the load to
// UNASSIGNED so it becomes eligible for re-sourcing. All operations are
// idempotent.
type Propagator interface {
	Link(ctx context.Context, loadID, assignmentID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error)
	UpdateStatus(ctx context.Context, loadID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error)
	Clear(ctx context.Context, loadID string) (model.Load, error)
}

// StampGuard wraps a Propagator with an optimistic-concurrency check: every
// write must carry a lockedAt stamp no older than the last one the guard let
// through for that load. Stale writes are logged and skipped, which stops a
// slow reconciliation write from regressing a pointer an operator just moved.
// The guard also serialises writes per load. Per-load state is dropped after
// the retention window of inactivity so the map tracks the working set, not
// every load ever propagated.
type StampGuard struct {
	next Propagator
	log  logger.Logger

	retention time.Duration
	now       func() time.Time

	mu        sync.Mutex
	locks     map[string]*loadState
	lastSweep time.Time
}

type loadState struct {
	mu      sync.Mutex
	stamp   time.Time
	touched time.Time
}

// defaultRetention bounds how long an idle load's stamp is remembered. Any
// legitimately in-flight write races within the store call timeout, so an
// hour-old entry is safe to forget.
const defaultRetention = time.Hour

// NewStampGuard wraps next with stamp checking.
func NewStampGuard(next Propagator, log logger.Logger) *StampGuard {
	return &StampGuard{
		next:      next,
		log:       log,
		retention: defaultRetention,
		now:       time.Now,
		locks:     make(map[string]*loadState),
	}
}

func (g *StampGuard) state(loadID string) *loadState {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.sweepLocked(now)
	st, ok := g.locks[loadID]
	if !ok {
		st = &loadState{}
		g.locks[loadID] = st
	}
	st.touched = now
	return st
}

// sweepLocked evicts entries idle for a full retention window. Runs at most
// once per window; callers hold g.mu.
func (g *StampGuard) sweepLocked(now time.Time) {
	if now.Sub(g.lastSweep) < g.retention {
		return
	}
	g.lastSweep = now
	for id, st := range g.locks {
		if now.Sub(st.touched) >= g.retention {
			delete(g.locks, id)
		}
	}
}

func (g *StampGuard) write(loadID string, lockedAt time.Time, op func() (model.Load, error)) (model.Load, error) {
	st := g.state(loadID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if lockedAt.Before(st.stamp) {
		g.log.Warnf("skipping stale propagation for load %s: stamp %s < %s", loadID, lockedAt.Format(time.RFC3339Nano), st.stamp.Format(time.RFC3339Nano))
		return model.Load{}, ErrStaleWrite
	}
	load, err := op()
	if err == nil {
		st.stamp = lockedAt
	}
	return load, err
}

func (g *StampGuard) Link(ctx context.Context, loadID, assignmentID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error) {
	return g.write(loadID, lockedAt, func() (model.Load, error) {
		return g.next.Link(ctx, loadID, assignmentID, status, metadata, lockedAt)
	})
}

func (g *StampGuard) UpdateStatus(ctx context.Context, loadID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error) {
	return g.write(loadID, lockedAt, func() (model.Load, error) {
		return g.next.UpdateStatus(ctx, loadID, status, metadata, lockedAt)
	})
}

// Clear always goes through: resetting to UNASSIGNED is idempotent and takes
// a fresh stamp so older in-flight writes cannot resurrect the pointer.
func (g *StampGuard) Clear(ctx context.Context, loadID string) (model.Load, error) {
	return g.write(loadID, g.now(), func() (model.Load, error) {
		return g.next.Clear(ctx, loadID)
	})
}
