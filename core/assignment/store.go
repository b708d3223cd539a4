// Package assignment owns the assignment lifecycle: the store contract over
// the vendor/assignment service and the action service that sequences
// transitions, load propagation and ledger events.
package assignment

import (
	"context"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// CreateParams are the inputs for a new assignment. A new record starts in
// PENDING with a CREATED ledger event.
type CreateParams struct {
	OrgID    string
	VendorID string
	LoadID   string
	TripID   string
	Score    *float64
	Metadata map[string]any
}

// Filter narrows FindAssignments queries. Empty fields are ignored.
type Filter struct {
	OrgID    string
	VendorID string
	LoadID   string
	Statuses []model.AssignmentStatus
}

// Store is the lifecycle store contract. Transition fails with a NotFound
// error when the assignment does not exist; whether it rejects transitions
// out of a terminal state is the caller's concern (see Service strictness).
type Store interface {
	Create(ctx context.Context, p CreateParams) (model.Assignment, model.AssignmentEvent, error)
	Get(ctx context.Context, id string) (model.Assignment, []model.AssignmentEvent, error)
	Find(ctx context.Context, f Filter) ([]model.Assignment, error)
	Transition(ctx context.Context, id string, status model.AssignmentStatus, metadata map[string]any) (model.Assignment, error)
	AppendEvent(ctx context.Context, id string, typ model.EventType, payload map[string]any) (model.AssignmentEvent, error)
}
