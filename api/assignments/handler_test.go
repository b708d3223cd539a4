package assignments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
	"github.com/mridultyagi687/TSGLogistics-sub000/infra/logger"
)

type memStore struct {
	mu          sync.Mutex
	seq         int
	assignments map[string]model.Assignment
	events      map[string][]model.AssignmentEvent
}

func newMemStore() *memStore {
	return &memStore{assignments: map[string]model.Assignment{}, events: map[string][]model.AssignmentEvent{}}
}

func (m *memStore) Create(_ context.Context, p assignment.CreateParams) (model.Assignment, model.AssignmentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	a := model.Assignment{
		ID:       fmt.Sprintf("as-%d", m.seq),
		OrgID:    p.OrgID,
		VendorID: p.VendorID,
		LoadID:   p.LoadID,
		Status:   model.AssignmentPending,
	}
	m.assignments[a.ID] = a
	ev := model.AssignmentEvent{AssignmentID: a.ID, Type: model.EventCreated, OccurredAt: time.Now()}
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
			ok := false
			for _, st := range f.Statuses {
				if a.Status == st {
					ok = true
				}
			}
			if !ok {
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

type nopPropagator struct{}

func (nopPropagator) Link(_ context.Context, loadID, _ string, _ model.LoadAssignmentStatus, _ map[string]any, _ time.Time) (model.Load, error) {
	return model.Load{ID: loadID}, nil
}

func (nopPropagator) UpdateStatus(_ context.Context, loadID string, _ model.LoadAssignmentStatus, _ map[string]any, _ time.Time) (model.Load, error) {
	return model.Load{ID: loadID}, nil
}

func (nopPropagator) Clear(_ context.Context, loadID string) (model.Load, error) {
	return model.Load{ID: loadID}, nil
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := assignment.NewService(store, nopPropagator{}, nil, logger.NopLogger{}, true)
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(store, svc, token, logger.NopLogger{}))
	t.Cleanup(srv.Close)
	return srv, store
}

func seedOffered(t *testing.T, store *memStore) model.Assignment {
	t.Helper()
	a, _, err := store.Create(context.Background(), assignment.CreateParams{OrgID: "org-1", VendorID: "V1", LoadID: "L1"})
	require.NoError(t, err)
	a, err = store.Transition(context.Background(), a.ID, model.AssignmentOffered, nil)
	require.NoError(t, err)
	return a
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAuthRequired(t *testing.T) {
	srv, store := newTestServer(t, "secret")
	a := seedOffered(t, store)

	resp := do(t, http.MethodGet, srv.URL+"/assignments/"+a.ID, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/assignments/"+a.ID, "secret", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetAssignmentWithLedger(t *testing.T) {
	srv, store := newTestServer(t, "")
	a := seedOffered(t, store)

	resp := do(t, http.MethodGet, srv.URL+"/assignments/"+a.ID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body assignmentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, a.ID, body.Assignment.ID)
	assert.Equal(t, model.AssignmentOffered, body.Assignment.Status)
	require.Len(t, body.Events, 1)
	assert.Equal(t, model.EventCreated, body.Events[0].Type)
}

func TestGetAssignmentNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := do(t, http.MethodGet, srv.URL+"/assignments/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAcceptOfferedAssignment(t *testing.T) {
	srv, store := newTestServer(t, "")
	a := seedOffered(t, store)

	resp := do(t, http.MethodPost, srv.URL+"/assignments/"+a.ID+"/accept", "", `{"metadata":{"by":"ops-7"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Assignment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.AssignmentAccepted, got.Status)
	assert.Equal(t, "ops-7", got.Metadata["by"])
}

func TestIllegalTransitionRejected(t *testing.T) {
	srv, store := newTestServer(t, "")
	a := seedOffered(t, store)
	_, err := store.Transition(context.Background(), a.ID, model.AssignmentAccepted, nil)
	require.NoError(t, err)

	// ACCEPTED is terminal under strict transitions.
	resp := do(t, http.MethodPost, srv.URL+"/assignments/"+a.ID+"/decline", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddNote(t *testing.T) {
	srv, store := newTestServer(t, "")
	a := seedOffered(t, store)

	resp := do(t, http.MethodPost, srv.URL+"/assignments/"+a.ID+"/notes", "", `{"note":"vendor asked to confirm by evening"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ev model.AssignmentEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ev))
	assert.Equal(t, model.EventNoteAdded, ev.Type)
	assert.Equal(t, "vendor asked to confirm by evening", ev.Payload["note"])

	resp = do(t, http.MethodPost, srv.URL+"/assignments/"+a.ID+"/notes", "", `{"note":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFindByStatus(t *testing.T) {
	srv, store := newTestServer(t, "")
	seedOffered(t, store)
	_, _, err := store.Create(context.Background(), assignment.CreateParams{OrgID: "org-1", VendorID: "V2", LoadID: "L2"})
	require.NoError(t, err)

	resp := do(t, http.MethodGet, srv.URL+"/assignments?status=offered", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Assignment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, model.AssignmentOffered, list[0].Status)

	resp = do(t, http.MethodGet, srv.URL+"/assignments?status=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
