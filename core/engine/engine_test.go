package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/matching"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/metrics"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/logger"
)

type stubLoads struct {
	mu    sync.Mutex
	loads []model.Load
	err   error
	calls int
	block chan struct{}
}

func (s *stubLoads) ListSourcing(ctx context.Context) ([]model.Load, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loads, s.err
}

func (s *stubLoads) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubCandidates struct {
	mu      sync.Mutex
	vendors []model.Vendor
	caps    map[string][]model.Capability
	capErr  map[string]error
	lists   int
}

func (s *stubCandidates) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.vendors, ctx.Err()
}

func (s *stubCandidates) Capabilities(_ context.Context, vendorID string) ([]model.Capability, error) {
	if err := s.capErr[vendorID]; err != nil {
		return nil, err
	}
	return s.caps[vendorID], nil
}

// memStore is an in-memory assignment.Store for exercising the loop without
// an HTTP round trip.
type memStore struct {
	mu          sync.Mutex
	seq         int
	assignments map[string]model.Assignment
	events      map[string][]model.AssignmentEvent
	failCreate  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		assignments: map[string]model.Assignment{},
		events:      map[string][]model.AssignmentEvent{},
		failCreate:  map[string]error{},
	}
}

func (m *memStore) Create(_ context.Context, p assignment.CreateParams) (model.Assignment, model.AssignmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCreate[p.LoadID]; err != nil {
		return model.Assignment{}, model.AssignmentEvent{}, err
	}
	m.seq++
	a := model.Assignment{
		ID:        fmt.Sprintf("as-%d", m.seq),
		OrgID:     p.OrgID,
		VendorID:  p.VendorID,
		LoadID:    p.LoadID,
		Status:    model.AssignmentPending,
		Score:     p.Score,
		Metadata:  p.Metadata,
		CreatedAt: time.Now(),
	}
	ev := model.AssignmentEvent{AssignmentID: a.ID, Type: model.EventCreated, OccurredAt: a.CreatedAt}
	m.assignments[a.ID] = a
	m.events[a.ID] = []model.AssignmentEvent{ev}
	return a, ev, nil
}

func (m *memStore) Get(_ context.Context, id string) (model.Assignment, []model.AssignmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return model.Assignment{}, nil, errs.NotFound("assignment", id)
	}
	return a, m.events[id], nil
}

func (m *memStore) Find(_ context.Context, f assignment.Filter) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Assignment
	for _, a := range m.assignments {
		if f.LoadID != "" && a.LoadID != f.LoadID {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				if a.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, id string, status model.AssignmentStatus, metadata map[string]any) (model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return model.Assignment{}, errs.NotFound("assignment", id)
	}
	a.Status = status
	if metadata != nil {
		a.Metadata = metadata
	}
	a.UpdatedAt = time.Now()
	m.assignments[id] = a
	return a, nil
}

func (m *memStore) AppendEvent(_ context.Context, id string, typ model.EventType, payload map[string]any) (model.AssignmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return model.AssignmentEvent{}, errs.NotFound("assignment", id)
	}
	ev := model.AssignmentEvent{AssignmentID: id, Type: typ, OccurredAt: time.Now(), Payload: payload}
	m.events[id] = append(m.events[id], ev)
	return ev, nil
}

func (m *memStore) byLoad(loadID string) (model.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.LoadID == loadID {
			return a, true
		}
	}
	return model.Assignment{}, false
}

type linkCall struct {
	loadID       string
	assignmentID string
	status       model.LoadAssignmentStatus
}

type fakePropagator struct {
	mu    sync.Mutex
	links []linkCall
}

func (p *fakePropagator) Link(_ context.Context, loadID, assignmentID string, status model.LoadAssignmentStatus, _ map[string]any, _ time.Time) (model.Load, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links = append(p.links, linkCall{loadID: loadID, assignmentID: assignmentID, status: status})
	return model.Load{ID: loadID}, nil
}

func (p *fakePropagator) UpdateStatus(_ context.Context, loadID string, _ model.LoadAssignmentStatus, _ map[string]any, _ time.Time) (model.Load, error) {
	return model.Load{ID: loadID}, nil
}

func (p *fakePropagator) Clear(_ context.Context, loadID string) (model.Load, error) {
	return model.Load{ID: loadID}, nil
}

type captureSink struct {
	mu      sync.Mutex
	matches []metrics.MatchRecord
	cycles  []metrics.CycleRecord
}

func (s *captureSink) RecordMatchResults(results []metrics.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, results...)
	return nil
}

func (s *captureSink) RecordCycle(rec metrics.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, rec)
	return nil
}

func sourcingLoad(id string) model.Load {
	return model.Load{
		ID:               id,
		OrgID:            "org-1",
		Status:           model.LoadPublished,
		Pickup:           model.Address{City: "Nagpur"},
		Drop:             model.Address{City: "Pune"},
		VehicleType:      "truck",
		AssignmentStatus: model.LoadSourcing,
	}
}

func capability(vendorID string, fleet []any, routes []any) model.Capability {
	return model.Capability{
		VendorID: vendorID,
		Payload:  map[string]any{"fleetTypes": fleet, "routeCoverage": routes},
	}
}

func newTestReconciler(t *testing.T, loads *stubLoads, cands *stubCandidates, store *memStore, sink metrics.MetricsSink) (*Reconciler, *fakePropagator) {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	prop := &fakePropagator{}
	svc, err := assignment.NewService(store, prop, nil, logger.NopLogger{}, true)
	require.NoError(t, err)
	r, err := NewReconciler(loads, cands, matching.NewWeightedScorer(), store, svc, sink, nil, logger.NopLogger{}, 50*time.Millisecond, "org-1")
	require.NoError(t, err)
	return r, prop
}

func TestRunCycleOffersBestCandidate(t *testing.T) {
	rating1, rating2 := 4.6, 2.0
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}}
	cands := &stubCandidates{
		vendors: []model.Vendor{
			{ID: "V1", Name: "Sharma Freight", Rating: &rating1},
			{ID: "V2", Name: "Eastline Carriers", Rating: &rating2},
		},
		caps: map[string][]model.Capability{
			"V1": {capability("V1", []any{"truck"}, []any{"NAGPUR-PUNE"})},
			"V2": {capability("V2", []any{"trailer"}, []any{})},
		},
	}
	store := newMemStore()
	sink := &captureSink{}
	r, prop := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	a, ok := store.byLoad("L1")
	require.True(t, ok, "expected an assignment for L1")
	assert.Equal(t, "V1", a.VendorID)
	assert.Equal(t, model.AssignmentOffered, a.Status)
	require.NotNil(t, a.Score)
	assert.InDelta(t, 0.984, *a.Score, 1e-9)
	assert.Equal(t, "NAGPUR-PUNE", a.Metadata["route"])

	// Ledger carries birth and offer in order.
	_, evs, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, model.EventCreated, evs[0].Type)
	assert.Equal(t, model.EventOffered, evs[1].Type)

	require.Len(t, prop.links, 1)
	assert.Equal(t, linkCall{loadID: "L1", assignmentID: a.ID, status: model.LoadOffered}, prop.links[0])

	require.Len(t, sink.matches, 1)
	assert.Equal(t, "V1", sink.matches[0].VendorID)
	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 1, sink.cycles[0].Matched)
	assert.Equal(t, 2, sink.cycles[0].Vendors)
}

func TestRunCycleIsolatesLoadFailures(t *testing.T) {
	rating := 4.0
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1"), sourcingLoad("L2"), sourcingLoad("L3")}}
	cands := &stubCandidates{
		vendors: []model.Vendor{{ID: "V1", Rating: &rating}},
		caps: map[string][]model.Capability{
			"V1": {capability("V1", []any{"truck"}, []any{"NAGPUR-PUNE"})},
		},
	}
	store := newMemStore()
	store.failCreate["L2"] = errs.Transient("create", fmt.Errorf("store unavailable"))
	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	_, ok := store.byLoad("L1")
	assert.True(t, ok, "L1 should be matched despite L2 failing")
	_, ok = store.byLoad("L2")
	assert.False(t, ok)
	_, ok = store.byLoad("L3")
	assert.True(t, ok, "L3 should be matched despite L2 failing")

	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 2, sink.cycles[0].Matched)
	assert.Equal(t, 1, sink.cycles[0].Failed)
}

func TestRunCycleNoEligibleCandidates(t *testing.T) {
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}}
	cands := &stubCandidates{} // empty fleet
	store := newMemStore()
	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	_, ok := store.byLoad("L1")
	assert.False(t, ok, "no assignment may be created without a candidate")

	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 0, sink.cycles[0].Matched)
	assert.Equal(t, 1, sink.cycles[0].Skipped)
}

func TestRunCycleSkipsAlreadyClaimedLoad(t *testing.T) {
	rating := 4.0
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}}
	cands := &stubCandidates{
		vendors: []model.Vendor{{ID: "V1", Rating: &rating}},
		caps: map[string][]model.Capability{
			"V1": {capability("V1", []any{"truck"}, []any{"NAGPUR-PUNE"})},
		},
	}
	store := newMemStore()
	// Pre-existing live claim on L1 from an earlier cycle.
	_, _, err := store.Create(context.Background(), assignment.CreateParams{OrgID: "org-1", VendorID: "V9", LoadID: "L1"})
	require.NoError(t, err)
	_, err = store.Transition(context.Background(), "as-1", model.AssignmentOffered, nil)
	require.NoError(t, err)

	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	a, _ := store.byLoad("L1")
	assert.Equal(t, "V9", a.VendorID, "the existing claim must not be displaced")
	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 0, sink.cycles[0].Matched)
	assert.Equal(t, 1, sink.cycles[0].Skipped)
}

func TestRunCycleEmptyBacklogSkipsVendorFetch(t *testing.T) {
	loads := &stubLoads{}
	cands := &stubCandidates{}
	store := newMemStore()
	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	cands.mu.Lock()
	defer cands.mu.Unlock()
	assert.Zero(t, cands.lists, "no vendor fetch when nothing is sourcing")
	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 0, sink.cycles[0].Sourcing)
}

func TestRunCycleSurvivesCapabilityFetchFailure(t *testing.T) {
	rating1, rating2 := 4.6, 3.0
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}}
	cands := &stubCandidates{
		vendors: []model.Vendor{
			{ID: "V1", Rating: &rating1},
			{ID: "V2", Rating: &rating2},
		},
		caps: map[string][]model.Capability{
			"V2": {capability("V2", []any{"truck"}, []any{"NAGPUR-PUNE"})},
		},
		capErr: map[string]error{"V1": errs.Transient("capabilities", fmt.Errorf("timeout"))},
	}
	store := newMemStore()
	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	r.RunCycle(context.Background())

	a, ok := store.byLoad("L1")
	require.True(t, ok)
	assert.Equal(t, "V2", a.VendorID, "vendor with failed capability fetch must not win on stale data")
}

func TestTickDropsOverlappingCycle(t *testing.T) {
	block := make(chan struct{})
	loads := &stubLoads{block: block}
	cands := &stubCandidates{}
	store := newMemStore()
	r, _ := newTestReconciler(t, loads, cands, store, &captureSink{})

	done := make(chan struct{})
	go func() {
		r.Tick(context.Background())
		close(done)
	}()

	// Wait until the first cycle is inside ListSourcing, then tick again.
	require.Eventually(t, func() bool { return loads.callCount() == 1 }, time.Second, time.Millisecond)
	r.Tick(context.Background())
	assert.Equal(t, 1, loads.callCount(), "overlapping tick must not start a second cycle")

	close(block)
	<-done
}

func TestTickDrainsCycleAfterCancellation(t *testing.T) {
	rating := 4.0
	block := make(chan struct{})
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}, block: block}
	cands := &stubCandidates{
		vendors: []model.Vendor{{ID: "V1", Rating: &rating}},
		caps: map[string][]model.Capability{
			"V1": {capability("V1", []any{"truck"}, []any{"NAGPUR-PUNE"})},
		},
	}
	store := newMemStore()
	sink := &captureSink{}
	r, _ := newTestReconciler(t, loads, cands, store, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Tick(ctx)
		close(done)
	}()

	// Cancel while the cycle is inside the backlog fetch, then let it resume.
	// The remaining store calls must still go through.
	require.Eventually(t, func() bool { return loads.callCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	close(block)
	<-done

	a, ok := store.byLoad("L1")
	require.True(t, ok, "in-flight cycle must finish after shutdown begins")
	assert.Equal(t, model.AssignmentOffered, a.Status)
	require.Len(t, sink.cycles, 1)
	assert.Equal(t, 1, sink.cycles[0].Matched)
}

func TestRunReturnsAfterInFlightCycle(t *testing.T) {
	rating := 4.0
	block := make(chan struct{})
	loads := &stubLoads{loads: []model.Load{sourcingLoad("L1")}, block: block}
	cands := &stubCandidates{
		vendors: []model.Vendor{{ID: "V1", Rating: &rating}},
		caps: map[string][]model.Capability{
			"V1": {capability("V1", []any{"truck"}, []any{"NAGPUR-PUNE"})},
		},
	}
	store := newMemStore()
	r, _ := newTestReconciler(t, loads, cands, store, &captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return loads.callCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned while a cycle was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the cycle drained")
	}

	a, ok := store.byLoad("L1")
	require.True(t, ok)
	assert.Equal(t, model.AssignmentOffered, a.Status)
}

func TestTickEnforcesMinimumGap(t *testing.T) {
	loads := &stubLoads{}
	cands := &stubCandidates{}
	store := newMemStore()
	r, _ := newTestReconciler(t, loads, cands, store, &captureSink{})

	now := time.Now()
	r.now = func() time.Time { return now }

	r.Tick(context.Background())
	assert.Equal(t, 1, loads.callCount())

	// Same instant: inside the gap, dropped.
	r.Tick(context.Background())
	assert.Equal(t, 1, loads.callCount())

	// Past the interval: runs again.
	now = now.Add(60 * time.Millisecond)
	r.Tick(context.Background())
	assert.Equal(t, 2, loads.callCount())
}
