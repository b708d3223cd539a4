package model

// Vendor is a service provider that can fulfil loads. Read-only to this
// engine; the vendor store owns the record.
type Vendor struct {
	ID          string   `json:"id"`
	OrgID       string   `json:"orgId"`
	Name        string   `json:"name"`
	ServiceTags []string `json:"serviceTags,omitempty"`
	Address     Address  `json:"address,omitempty"`

	// Rating is 0-5. Nil means the vendor has never been rated, which the
	// scorer treats differently from an explicit zero.
	Rating *float64 `json:"rating,omitempty"`
}

// Capability is one free-form capability document declared by a vendor.
// The payload shape is owned by the vendors; the typed accessors below pull
// out the fields scoring cares about and tolerate anything else.
type Capability struct {
	ID       string         `json:"id,omitempty"`
	VendorID string         `json:"vendorId,omitempty"`
	Payload  map[string]any `json:"payload"`
}

// FleetTypes returns the capability's fleet-types list, if declared.
func (c Capability) FleetTypes() []string {
	return stringSlice(c.Payload["fleetTypes"])
}

// RouteCoverage returns the capability's route-coverage list, if declared.
// Entries are "PICKUPCITY-DROPCITY" strings.
func (c Capability) RouteCoverage() []string {
	return stringSlice(c.Payload["routeCoverage"])
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
