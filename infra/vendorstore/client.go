// Package vendorstore is the HTTP/JSON client for the vendor/assignment
// service. It is the engine's candidate reader and its assignment lifecycle
// store.
package vendorstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/httpx"
)

// Config aliases the shared endpoint configuration.
type Config = httpx.Config

// Client talks to the vendor/assignment store.
type Client struct {
	http *httpx.Client
}

// New creates a Client after validating the endpoint configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vendor store: %w", err)
	}
	return &Client{http: httpx.New(cfg)}, nil
}

// ListVendors fetches all vendors.
func (c *Client) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	if err := c.http.Do(ctx, http.MethodGet, "/vendors", nil, nil, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// Capabilities fetches the capability documents of one vendor.
func (c *Client) Capabilities(ctx context.Context, vendorID string) ([]model.Capability, error) {
	var caps []model.Capability
	err := c.http.Do(ctx, http.MethodGet, "/vendors/"+vendorID+"/capabilities", nil, nil, &caps)
	if httpx.IsNotFound(err) {
		return nil, errs.NotFound("vendor", vendorID)
	}
	if err != nil {
		return nil, err
	}
	return caps, nil
}

type capabilitiesRequest struct {
	Capabilities []capabilityPayload `json:"capabilities"`
}

type capabilityPayload struct {
	Payload map[string]any `json:"payload"`
}

// ReplaceCapabilities replaces the vendor's capability documents in full.
func (c *Client) ReplaceCapabilities(ctx context.Context, vendorID string, payloads []map[string]any) ([]model.Capability, error) {
	body := capabilitiesRequest{Capabilities: make([]capabilityPayload, len(payloads))}
	for i, p := range payloads {
		body.Capabilities[i] = capabilityPayload{Payload: p}
	}
	var caps []model.Capability
	err := c.http.Do(ctx, http.MethodPut, "/vendors/"+vendorID+"/capabilities", nil, body, &caps)
	if httpx.IsNotFound(err) {
		return nil, errs.NotFound("vendor", vendorID)
	}
	if err != nil {
		return nil, err
	}
	return caps, nil
}

type createRequest struct {
	OrgID    string         `json:"orgId"`
	VendorID string         `json:"vendorId"`
	LoadID   string         `json:"loadId"`
	TripID   string         `json:"tripId,omitempty"`
	Score    *float64       `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Create opens a new assignment in PENDING. The store journals the CREATED
// ledger row atomically with the insert.
func (c *Client) Create(ctx context.Context, p assignment.CreateParams) (model.Assignment, model.AssignmentEvent, error) {
	if p.OrgID == "" || p.VendorID == "" || p.LoadID == "" {
		return model.Assignment{}, model.AssignmentEvent{}, errs.Validation("orgId, vendorId and loadId are required")
	}
	if p.Score != nil && (*p.Score < 0 || *p.Score > 1) {
		return model.Assignment{}, model.AssignmentEvent{}, errs.Validation("score %v outside [0,1]", *p.Score)
	}
	body := createRequest{OrgID: p.OrgID, VendorID: p.VendorID, LoadID: p.LoadID, TripID: p.TripID, Score: p.Score, Metadata: p.Metadata}
	var a model.Assignment
	if err := c.http.Do(ctx, http.MethodPost, "/assignments", nil, body, &a); err != nil {
		return model.Assignment{}, model.AssignmentEvent{}, err
	}
	ev := model.AssignmentEvent{AssignmentID: a.ID, Type: model.EventCreated, OccurredAt: a.CreatedAt}
	return a, ev, nil
}

type assignmentWithEvents struct {
	model.Assignment
	Events []model.AssignmentEvent `json:"events"`
}

// Get fetches an assignment together with its event ledger.
func (c *Client) Get(ctx context.Context, id string) (model.Assignment, []model.AssignmentEvent, error) {
	var out assignmentWithEvents
	err := c.http.Do(ctx, http.MethodGet, "/assignments/"+id, nil, nil, &out)
	if httpx.IsNotFound(err) {
		return model.Assignment{}, nil, errs.NotFound("assignment", id)
	}
	if err != nil {
		return model.Assignment{}, nil, err
	}
	return out.Assignment, out.Events, nil
}

// Find queries assignments by the non-empty filter fields.
func (c *Client) Find(ctx context.Context, f assignment.Filter) ([]model.Assignment, error) {
	q := url.Values{}
	if f.OrgID != "" {
		q.Set("orgId", f.OrgID)
	}
	if f.VendorID != "" {
		q.Set("vendorId", f.VendorID)
	}
	if f.LoadID != "" {
		q.Set("loadId", f.LoadID)
	}
	if len(f.Statuses) > 0 {
		ss := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			ss[i] = string(s)
		}
		q.Set("statuses", strings.Join(ss, ","))
	}
	var out []model.Assignment
	if err := c.http.Do(ctx, http.MethodGet, "/assignments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type transitionRequest struct {
	Status   model.AssignmentStatus `json:"status"`
	Metadata map[string]any         `json:"metadata,omitempty"`
}

// Transition moves the assignment to the given status. Only the status and
// metadata change here; the caller appends the mirroring ledger row itself
// via AppendEvent. Missing assignments surface as a NotFound error.
func (c *Client) Transition(ctx context.Context, id string, status model.AssignmentStatus, metadata map[string]any) (model.Assignment, error) {
	if !status.Valid() {
		return model.Assignment{}, errs.Validation("unknown assignment status %q", status)
	}
	body := transitionRequest{Status: status, Metadata: metadata}
	var a model.Assignment
	err := c.http.Do(ctx, http.MethodPatch, "/assignments/"+id+"/status", nil, body, &a)
	if httpx.IsNotFound(err) {
		return model.Assignment{}, errs.NotFound("assignment", id)
	}
	if err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

type eventRequest struct {
	Type    model.EventType `json:"type"`
	Payload map[string]any  `json:"payload,omitempty"`
}

// AppendEvent appends one ledger row to the assignment's event history.
func (c *Client) AppendEvent(ctx context.Context, id string, typ model.EventType, payload map[string]any) (model.AssignmentEvent, error) {
	body := eventRequest{Type: typ, Payload: payload}
	var ev model.AssignmentEvent
	err := c.http.Do(ctx, http.MethodPost, "/assignments/"+id+"/events", nil, body, &ev)
	if httpx.IsNotFound(err) {
		return model.AssignmentEvent{}, errs.NotFound("assignment", id)
	}
	if err != nil {
		return model.AssignmentEvent{}, err
	}
	return ev, nil
}
