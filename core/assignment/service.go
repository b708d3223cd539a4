package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/events"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/propagation"
	"github.com/mridultyagi687/TSGLogistics-sub000/internal/eventbus"
)

// Triggers recorded on published transition events.
const (
	TriggerOperator   = "operator"
	TriggerReconciler = "reconciler"
)

// Service drives assignment transitions in the mandated order: lifecycle
// store first, load propagation second, ledger event third. A propagation
// failure after the store write is not rolled back; it is logged and left for
// the next reconciliation pass to repair.
type Service struct {
	store  Store
	prop   propagation.Propagator
	bus    eventbus.EventBus
	log    logger.Logger
	strict bool
	now    func() time.Time
}

// NewService creates the action service. When strict is true, transitions not
// in the state table are rejected with a validation error before any write;
// when false the legacy lenient behaviour is preserved and the store decides.
func NewService(store Store, prop propagation.Propagator, bus eventbus.EventBus, log logger.Logger, strict bool) (*Service, error) {
	if store == nil || prop == nil || log == nil {
		return nil, errors.New("assignment: nil parameter provided to NewService")
	}
	return &Service{store: store, prop: prop, bus: bus, log: log, strict: strict, now: time.Now}, nil
}

// Offer moves a freshly created assignment to OFFERED and links the load to
// it. Used by the reconciliation engine after Create.
func (s *Service) Offer(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error) {
	return s.act(ctx, assignmentID, model.AssignmentOffered, metadata, TriggerReconciler, s.propagateLink)
}

// Accept records an operator accepting an offered assignment.
func (s *Service) Accept(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error) {
	return s.act(ctx, assignmentID, model.AssignmentAccepted, metadata, TriggerOperator, s.propagateStatus)
}

// Decline records an operator declining an offered assignment. The load is
// cleared so it becomes eligible for re-sourcing.
func (s *Service) Decline(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error) {
	return s.act(ctx, assignmentID, model.AssignmentDeclined, metadata, TriggerOperator, s.propagateClear)
}

// Cancel terminates an assignment from any non-terminal state and clears the
// load.
func (s *Service) Cancel(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error) {
	return s.act(ctx, assignmentID, model.AssignmentCancelled, metadata, TriggerOperator, s.propagateClear)
}

// AddNote appends a manual NOTE_ADDED ledger event without touching the
// assignment's status or the load.
func (s *Service) AddNote(ctx context.Context, assignmentID, note string) (model.AssignmentEvent, error) {
	if note == "" {
		return model.AssignmentEvent{}, errs.Validation("note must not be empty")
	}
	ev, err := s.store.AppendEvent(ctx, assignmentID, model.EventNoteAdded, map[string]any{"note": note})
	if err != nil {
		return model.AssignmentEvent{}, fmt.Errorf("append note: %w", err)
	}
	return ev, nil
}

type propagateFunc func(ctx context.Context, a model.Assignment, metadata map[string]any, lockedAt time.Time) error

func (s *Service) act(ctx context.Context, id string, to model.AssignmentStatus, metadata map[string]any, trigger string, propagate propagateFunc) (model.Assignment, error) {
	if !to.Valid() {
		return model.Assignment{}, errs.Validation("unknown assignment status %q", to)
	}
	current, _, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Assignment{}, err
	}
	if s.strict && !model.CanTransition(current.Status, to) {
		return model.Assignment{}, errs.Validation("illegal transition %s -> %s for assignment %s", current.Status, to, id)
	}

	updated, err := s.store.Transition(ctx, id, to, metadata)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("transition %s to %s: %w", id, to, err)
	}

	lockedAt := s.now()
	if perr := propagate(ctx, updated, metadata, lockedAt); perr != nil {
		if errors.Is(perr, propagation.ErrStaleWrite) {
			s.log.Warnf("propagation for load %s superseded by a newer write", updated.LoadID)
		} else {
			// Recoverable inconsistency: the store moved, the load did not.
			s.log.Warnf("partial propagation for assignment %s (load %s): %v", id, updated.LoadID, perr)
		}
	}

	evType, ok := model.EventForStatus(to)
	if !ok {
		return updated, nil
	}
	ev, err := s.store.AppendEvent(ctx, id, evType, metadata)
	if err != nil {
		s.log.Warnf("ledger event %s for assignment %s failed: %v", evType, id, err)
		ev = model.AssignmentEvent{AssignmentID: id, Type: evType, OccurredAt: lockedAt}
	}
	if s.bus != nil {
		s.bus.Publish(events.TransitionEvent{Assignment: updated, Event: ev, LoadID: updated.LoadID, Trigger: trigger})
	}
	return updated, nil
}

func (s *Service) propagateLink(ctx context.Context, a model.Assignment, metadata map[string]any, lockedAt time.Time) error {
	_, err := s.prop.Link(ctx, a.LoadID, a.ID, model.LoadStatusFor(a.Status), metadata, lockedAt)
	return err
}

func (s *Service) propagateStatus(ctx context.Context, a model.Assignment, metadata map[string]any, lockedAt time.Time) error {
	_, err := s.prop.UpdateStatus(ctx, a.LoadID, model.LoadStatusFor(a.Status), metadata, lockedAt)
	return err
}

func (s *Service) propagateClear(ctx context.Context, a model.Assignment, _ map[string]any, _ time.Time) error {
	_, err := s.prop.Clear(ctx, a.LoadID)
	return err
}
