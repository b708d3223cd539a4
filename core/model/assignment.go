package model

import "time"

// AssignmentStatus is the assignment's own state machine. ACCEPTED, DECLINED,
// CANCELLED and EXPIRED are terminal: re-matching a load means creating a new
// assignment, never reviving an old one.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentOffered   AssignmentStatus = "OFFERED"
	AssignmentAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentDeclined  AssignmentStatus = "DECLINED"
	AssignmentCancelled AssignmentStatus = "CANCELLED"
	AssignmentExpired   AssignmentStatus = "EXPIRED"
)

// transitions is the legal state table. CANCELLED is reachable from any
// non-terminal state; EXPIRED is reserved for a time-driven sweeper and only
// reachable from OFFERED.
var transitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentPending: {AssignmentOffered, AssignmentCancelled},
	AssignmentOffered: {AssignmentAccepted, AssignmentDeclined, AssignmentCancelled, AssignmentExpired},
}

// Terminal reports whether s admits no further transitions.
func (s AssignmentStatus) Terminal() bool {
	switch s {
	case AssignmentAccepted, AssignmentDeclined, AssignmentCancelled, AssignmentExpired:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is in the state table.
func CanTransition(from, to AssignmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known assignment status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentOffered, AssignmentAccepted,
		AssignmentDeclined, AssignmentCancelled, AssignmentExpired:
		return true
	}
	return false
}

// Assignment records one vendor being matched to one load. Assignments are
// created once per matching attempt and only ever transitioned, never
// deleted; history stays durable in the event ledger.
type Assignment struct {
	ID       string           `json:"id"`
	OrgID    string           `json:"orgId"`
	VendorID string           `json:"vendorId"`
	LoadID   string           `json:"loadId"`
	TripID   string           `json:"tripId,omitempty"`
	Status   AssignmentStatus `json:"status"`

	// Score is in [0,1] when the assignment came out of a scored match.
	Score    *float64       `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// EventType labels a row in the assignment's append-only ledger.
type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventOffered   EventType = "OFFERED"
	EventAccepted  EventType = "ACCEPTED"
	EventDeclined  EventType = "DECLINED"
	EventCancelled EventType = "CANCELLED"
	EventExpired   EventType = "EXPIRED"
	EventNoteAdded EventType = "NOTE_ADDED"
)

// EventForStatus maps a post-transition status to the ledger event type that
// mirrors it. CREATED is written once at birth and never maps from a status.
func EventForStatus(s AssignmentStatus) (EventType, bool) {
	switch s {
	case AssignmentOffered:
		return EventOffered, true
	case AssignmentAccepted:
		return EventAccepted, true
	case AssignmentDeclined:
		return EventDeclined, true
	case AssignmentCancelled:
		return EventCancelled, true
	case AssignmentExpired:
		return EventExpired, true
	}
	return "", false
}

// AssignmentEvent is one append-only ledger row. Except for manual notes,
// an event is only ever written together with the status change it mirrors.
type AssignmentEvent struct {
	ID           string         `json:"id,omitempty"`
	AssignmentID string         `json:"assignmentId"`
	Type         EventType      `json:"type"`
	OccurredAt   time.Time      `json:"occurredAt"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// LoadStatusFor translates an assignment status into the load-side projection
// written by the propagator.
func LoadStatusFor(s AssignmentStatus) LoadAssignmentStatus {
	switch s {
	case AssignmentOffered:
		return LoadOffered
	case AssignmentAccepted:
		return LoadAccepted
	case AssignmentDeclined:
		return LoadDeclined
	case AssignmentCancelled, AssignmentExpired:
		return LoadCancelledA
	}
	return LoadSourcing
}
