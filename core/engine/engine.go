package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/events"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/matching"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/metrics"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/internal/eventbus"
)

// LoadSource reads the sourcing backlog from the load service.
type LoadSource interface {
	ListSourcing(ctx context.Context) ([]model.Load, error)
}

// CandidateSource reads the vendor fleet and its capability documents.
type CandidateSource interface {
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	Capabilities(ctx context.Context, vendorID string) ([]model.Capability, error)
}

// Offerer moves a freshly created assignment to OFFERED and links the load.
// Satisfied by *assignment.Service.
type Offerer interface {
	Offer(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error)
}

// Reconciler is the background matching loop. Each cycle reads the loads
// awaiting sourcing, scores the vendor fleet per load and, for the best
// candidate, creates an assignment and offers it. Cycles never overlap: a
// tick that arrives while the previous cycle is still running is dropped,
// as is a tick that fires before the configured interval has elapsed.
type Reconciler struct {
	loads      LoadSource
	candidates CandidateSource
	scorer     matching.Scorer
	store      assignment.Store
	actions    Offerer
	sink       metrics.MetricsSink
	bus        eventbus.EventBus
	log        logger.Logger
	interval   time.Duration
	orgID      string
	now        func() time.Time

	mu        sync.Mutex
	running   bool
	lastStart time.Time
}

// NewReconciler wires the reconciliation loop. sink and bus may be nil.
func NewReconciler(
	loads LoadSource,
	candidates CandidateSource,
	scorer matching.Scorer,
	store assignment.Store,
	actions Offerer,
	sink metrics.MetricsSink,
	bus eventbus.EventBus,
	log logger.Logger,
	interval time.Duration,
	orgID string,
) (*Reconciler, error) {
	if loads == nil || candidates == nil || scorer == nil || store == nil || actions == nil || log == nil {
		return nil, errors.New("engine: nil parameter provided to NewReconciler")
	}
	if interval <= 0 {
		return nil, errors.New("engine: interval must be positive")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Reconciler{
		loads:      loads,
		candidates: candidates,
		scorer:     scorer,
		store:      store,
		actions:    actions,
		sink:       sink,
		bus:        bus,
		log:        log,
		interval:   interval,
		orgID:      orgID,
		now:        time.Now,
	}, nil
}

// Run ticks the reconciler at the configured interval until ctx is
// cancelled. The first cycle runs immediately. Run returns only after the
// in-flight cycle, if any, has finished.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("reconciler stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one cycle unless a cycle is already in flight or the previous
// one started less than the interval ago. The guards make Tick safe to call
// from an external trigger alongside the ticker loop. The cycle itself is
// detached from ctx's cancellation so an in-flight pass drains on shutdown.
func (r *Reconciler) Tick(ctx context.Context) {
	started := r.now()

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		cyclesSkipped.WithLabelValues("in_flight").Inc()
		r.log.Debugf("cycle skipped: previous cycle still running")
		return
	}
	if !r.lastStart.IsZero() && started.Sub(r.lastStart) < r.interval {
		r.mu.Unlock()
		cyclesSkipped.WithLabelValues("min_gap").Inc()
		r.log.Debugf("cycle skipped: last cycle started %s ago", started.Sub(r.lastStart))
		return
	}
	r.running = true
	r.lastStart = started
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	// A cycle that has started runs to completion even when shutdown cancels
	// the run context. The store clients carry their own per-call timeouts,
	// so the detached cycle is still bounded.
	r.RunCycle(context.WithoutCancel(ctx))
}

// RunCycle executes one full reconciliation pass. Exported for one-shot runs
// from the CLI; the scheduler guards in Tick are bypassed.
func (r *Reconciler) RunCycle(ctx context.Context) {
	cycle := uuid.NewString()
	started := r.now()

	loads, err := r.loads.ListSourcing(ctx)
	if err != nil {
		r.log.Errorf("cycle %s: listing sourcing loads: %v", cycle, err)
		loadFailures.Inc()
		return
	}
	sourcingBacklog.Set(float64(len(loads)))
	if len(loads) == 0 {
		// Nothing to source: skip the vendor fetch entirely.
		r.log.Debugf("cycle %s: no loads awaiting sourcing", cycle)
		r.finish(cycle, started, 0, 0, 0, 0, 0, nil)
		return
	}

	candidates, err := r.fetchCandidates(ctx, cycle)
	if err != nil {
		r.log.Errorf("cycle %s: listing vendors: %v", cycle, err)
		loadFailures.Add(float64(len(loads)))
		return
	}
	r.log.Infof("cycle %s: %d loads awaiting sourcing, %d vendor candidates", cycle, len(loads), len(candidates))

	var matched, skipped, failed int
	records := make([]metrics.MatchRecord, 0, len(loads))
	for _, load := range loads {
		rec, err := r.matchLoad(ctx, cycle, load, candidates)
		switch {
		case errors.Is(err, errNoCandidates):
			skipped++
			loadsUnmatched.Inc()
			r.log.Infof("cycle %s: load %s left in sourcing, no eligible candidate", cycle, load.ID)
		case err != nil:
			failed++
			loadFailures.Inc()
			r.log.Errorf("cycle %s: load %s failed: %v", cycle, load.ID, err)
		default:
			matched++
			loadsMatched.Inc()
			records = append(records, rec)
			if r.bus != nil {
				r.bus.Publish(events.MatchEvent{
					LoadID:       rec.LoadID,
					AssignmentID: rec.AssignmentID,
					VendorID:     rec.VendorID,
					Score:        rec.Score,
				})
			}
		}
	}

	r.finish(cycle, started, len(loads), len(candidates), matched, skipped, failed, records)
}

var errNoCandidates = errors.New("no eligible candidates")

// matchLoad scores the fleet for one load and offers the best candidate.
// Failures are contained to the load so the rest of the cycle proceeds.
func (r *Reconciler) matchLoad(ctx context.Context, cycle string, load model.Load, candidates []matching.Candidate) (metrics.MatchRecord, error) {
	// A load already claimed by a live assignment is never double-sourced,
	// even if its cached sub-state lagged behind.
	active, err := r.store.Find(ctx, assignment.Filter{
		LoadID:   load.ID,
		Statuses: []model.AssignmentStatus{model.AssignmentOffered, model.AssignmentAccepted},
	})
	if err != nil {
		return metrics.MatchRecord{}, err
	}
	if len(active) > 0 {
		return metrics.MatchRecord{}, errNoCandidates
	}

	ranked := r.scorer.Score(load, candidates)
	if len(ranked) == 0 {
		return metrics.MatchRecord{}, errNoCandidates
	}
	best := ranked[0]
	meta := best.Breakdown.Metadata()
	meta["cycleId"] = cycle

	orgID := load.OrgID
	if orgID == "" {
		orgID = r.orgID
	}
	score := best.Score
	created, _, err := r.store.Create(ctx, assignment.CreateParams{
		OrgID:    orgID,
		VendorID: best.Vendor.ID,
		LoadID:   load.ID,
		Score:    &score,
		Metadata: meta,
	})
	if err != nil {
		return metrics.MatchRecord{}, err
	}

	if _, err := r.actions.Offer(ctx, created.ID, meta); err != nil {
		return metrics.MatchRecord{}, err
	}
	r.log.Infof("cycle %s: load %s offered to vendor %s (assignment %s, score %.3f)",
		cycle, load.ID, best.Vendor.ID, created.ID, best.Score)

	return metrics.MatchRecord{
		LoadID:       load.ID,
		VendorID:     best.Vendor.ID,
		AssignmentID: created.ID,
		OrgID:        orgID,
		Score:        best.Score,
		MatchedAt:    r.now(),
	}, nil
}

// fetchCandidates lists the fleet and fans out over it for capabilities.
// A vendor whose capability fetch fails stays in the pool with an empty
// document set rather than sinking the cycle.
func (r *Reconciler) fetchCandidates(ctx context.Context, cycle string) ([]matching.Candidate, error) {
	vendors, err := r.candidates.ListVendors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]matching.Candidate, len(vendors))
	var wg sync.WaitGroup
	for i, v := range vendors {
		wg.Add(1)
		go func(i int, v model.Vendor) {
			defer wg.Done()
			caps, err := r.candidates.Capabilities(ctx, v.ID)
			if err != nil {
				r.log.Warnf("cycle %s: capabilities for vendor %s: %v", cycle, v.ID, err)
				caps = nil
			}
			out[i] = matching.Candidate{Vendor: v, Capabilities: caps}
		}(i, v)
	}
	wg.Wait()
	return out, nil
}

func (r *Reconciler) finish(cycle string, started time.Time, sourcing, vendors, matched, skipped, failed int, records []metrics.MatchRecord) {
	dur := r.now().Sub(started)
	cycleDuration.Observe(dur.Seconds())

	if len(records) > 0 {
		if err := r.sink.RecordMatchResults(records); err != nil {
			r.log.Warnf("cycle %s: recording match results: %v", cycle, err)
		}
	}
	if err := r.sink.RecordCycle(metrics.CycleRecord{
		Started:  started,
		Duration: dur,
		Sourcing: sourcing,
		Vendors:  vendors,
		Matched:  matched,
		Skipped:  skipped,
		Failed:   failed,
	}); err != nil {
		r.log.Warnf("cycle %s: recording cycle: %v", cycle, err)
	}
	if r.bus != nil {
		r.bus.Publish(events.CycleEvent{
			Started:  started,
			Duration: dur,
			Sourcing: sourcing,
			Matched:  matched,
			Skipped:  skipped,
			Failed:   failed,
		})
	}
	r.log.Infof("cycle %s done in %s: %d sourcing, %d matched, %d skipped, %d failed",
		cycle, dur, sourcing, matched, skipped, failed)
}
