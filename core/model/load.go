package model

import "time"

// LoadStatus is the load's own lifecycle, owned by the load service.
type LoadStatus string

const (
	LoadDraft     LoadStatus = "draft"
	LoadPublished LoadStatus = "published"
	LoadBooked    LoadStatus = "booked"
	LoadInTransit LoadStatus = "in_transit"
	LoadCompleted LoadStatus = "completed"
	LoadCancelled LoadStatus = "cancelled"
)

// LoadAssignmentStatus is the load's secondary, assignment-facing sub-state.
// It is a cached projection of the assignment store's current truth.
type LoadAssignmentStatus string

const (
	LoadUnassigned LoadAssignmentStatus = "UNASSIGNED"
	LoadSourcing   LoadAssignmentStatus = "SOURCING"
	LoadOffered    LoadAssignmentStatus = "OFFERED"
	LoadAccepted   LoadAssignmentStatus = "ACCEPTED"
	LoadDeclined   LoadAssignmentStatus = "DECLINED"
	LoadCancelledA LoadAssignmentStatus = "CANCELLED"
)

// Address identifies one end of a load's route. Only the city takes part in
// route-coverage scoring.
type Address struct {
	Line  string `json:"line,omitempty"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
	Pin   string `json:"pin,omitempty"`
}

// Load is a shipment awaiting transport. The assignment sub-state
// (AssignmentID, AssignmentStatus, AssignmentMetadata, AssignmentLockedAt)
// is written only through the propagation path; everything else is owned by
// the load service and read-only to this engine.
type Load struct {
	ID     string     `json:"id"`
	OrgID  string     `json:"orgId"`
	Status LoadStatus `json:"status"`

	Pickup Address `json:"pickup"`
	Drop   Address `json:"drop"`

	VehicleType string  `json:"vehicleType"`
	CargoType   string  `json:"cargoType,omitempty"`
	WeightKg    float64 `json:"weightKg,omitempty"`

	AssignmentID       string               `json:"assignmentId,omitempty"`
	AssignmentStatus   LoadAssignmentStatus `json:"assignmentStatus"`
	AssignmentMetadata map[string]any       `json:"assignmentMetadata,omitempty"`
	AssignmentLockedAt time.Time            `json:"assignmentLockedAt,omitempty"`
}

// AwaitingSourcing reports whether the load is eligible for matching.
func (l Load) AwaitingSourcing() bool {
	return l.AssignmentStatus == LoadSourcing
}
