// Package loadstore is the HTTP/JSON client for the load service. It is both
// the engine's load reader and the propagator that writes the load's cached
// assignment sub-state.
package loadstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/httpx"
)

// Config aliases the shared endpoint configuration.
type Config = httpx.Config

// Client talks to the load store.
type Client struct {
	http *httpx.Client
}

// New creates a Client after validating the endpoint configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	return &Client{http: httpx.New(cfg)}, nil
}

// List fetches all loads.
func (c *Client) List(ctx context.Context) ([]model.Load, error) {
	var loads []model.Load
	if err := c.http.Do(ctx, http.MethodGet, "/loads", nil, nil, &loads); err != nil {
		return nil, err
	}
	return loads, nil
}

// ListSourcing fetches the loads currently awaiting sourcing.
func (c *Client) ListSourcing(ctx context.Context) ([]model.Load, error) {
	q := url.Values{"assignmentStatus": {string(model.LoadSourcing)}}
	var loads []model.Load
	if err := c.http.Do(ctx, http.MethodGet, "/loads", q, nil, &loads); err != nil {
		return nil, err
	}
	return loads, nil
}

type linkRequest struct {
	AssignmentID string                     `json:"assignmentId"`
	Status       model.LoadAssignmentStatus `json:"status,omitempty"`
	Metadata     map[string]any             `json:"metadata,omitempty"`
	LockedAt     time.Time                  `json:"lockedAt"`
}

type statusRequest struct {
	Status   model.LoadAssignmentStatus `json:"status"`
	Metadata map[string]any             `json:"metadata,omitempty"`
	LockedAt time.Time                  `json:"lockedAt"`
}

// Link sets the load's full assignment snapshot: pointer, status, metadata
// and stamp. The write is idempotent on the load service side.
func (c *Client) Link(ctx context.Context, loadID, assignmentID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error) {
	body := linkRequest{AssignmentID: assignmentID, Status: status, Metadata: metadata, LockedAt: lockedAt}
	var load model.Load
	err := c.http.Do(ctx, http.MethodPatch, "/loads/"+loadID+"/assignment", nil, body, &load)
	if httpx.IsNotFound(err) {
		return model.Load{}, errs.NotFound("load", loadID)
	}
	if err != nil {
		return model.Load{}, err
	}
	return load, nil
}

// UpdateStatus changes the load's assignment status and metadata without
// touching the assignment pointer.
func (c *Client) UpdateStatus(ctx context.Context, loadID string, status model.LoadAssignmentStatus, metadata map[string]any, lockedAt time.Time) (model.Load, error) {
	body := statusRequest{Status: status, Metadata: metadata, LockedAt: lockedAt}
	var load model.Load
	err := c.http.Do(ctx, http.MethodPatch, "/loads/"+loadID+"/assignment/status", nil, body, &load)
	if httpx.IsNotFound(err) {
		return model.Load{}, errs.NotFound("load", loadID)
	}
	if err != nil {
		return model.Load{}, err
	}
	return load, nil
}

// Clear resets the load to UNASSIGNED with a null assignment pointer so a
// later cycle can source it again.
func (c *Client) Clear(ctx context.Context, loadID string) (model.Load, error) {
	var load model.Load
	err := c.http.Do(ctx, http.MethodDelete, "/loads/"+loadID+"/assignment", nil, nil, &load)
	if httpx.IsNotFound(err) {
		return model.Load{}, errs.NotFound("load", loadID)
	}
	if err != nil {
		return model.Load{}, err
	}
	return load, nil
}
