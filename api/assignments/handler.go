// Package assignments exposes the operator-facing HTTP surface: assignment
// lookup plus the accept/decline/cancel actions and manual ledger notes.
package assignments

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mridultyagi687/TSGLogistics-sub000/core/assignment"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/errs"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/logger"
	"github.com/mridultyagi687/TSGLogistics-sub000/core/model"
)

// Handler serves the assignment API.
type Handler struct {
	store assignment.Store
	svc   *assignment.Service
	token string
	log   logger.Logger
}

// NewHandler builds the router. Requests must include an Authorization
// header with "Bearer <token>" when token is non-empty.
func NewHandler(store assignment.Store, svc *assignment.Service, token string, log logger.Logger) http.Handler {
	h := &Handler{store: store, svc: svc, token: token, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.authenticate)

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", h.find)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Post("/accept", h.action(h.svc.Accept))
			r.Post("/decline", h.action(h.svc.Decline))
			r.Post("/cancel", h.action(h.svc.Cancel))
			r.Post("/notes", h.addNote)
		})
	})
	return r
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+h.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type assignmentResponse struct {
	Assignment model.Assignment        `json:"assignment"`
	Events     []model.AssignmentEvent `json:"events"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, events, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, assignmentResponse{Assignment: a, Events: events})
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := assignment.Filter{
		OrgID:    q.Get("orgId"),
		VendorID: q.Get("vendorId"),
		LoadID:   q.Get("loadId"),
	}
	for _, s := range strings.Split(q.Get("status"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		st := model.AssignmentStatus(strings.ToUpper(s))
		if !st.Valid() {
			h.fail(w, errs.Validation("unknown status %q", s))
			return
		}
		f.Statuses = append(f.Statuses, st)
	}
	list, err := h.store.Find(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	if list == nil {
		list = []model.Assignment{}
	}
	h.respond(w, http.StatusOK, list)
}

type actionRequest struct {
	Metadata map[string]any `json:"metadata"`
}

type actionFunc func(ctx context.Context, assignmentID string, metadata map[string]any) (model.Assignment, error)

func (h *Handler) action(act actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req actionRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				h.fail(w, errs.Validation("invalid request body: %v", err))
				return
			}
		}
		a, err := act(r.Context(), id, req.Metadata)
		if err != nil {
			h.fail(w, err)
			return
		}
		h.respond(w, http.StatusOK, a)
	}
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, errs.Validation("invalid request body: %v", err))
		return
	}
	ev, err := h.svc.AddNote(r.Context(), id, req.Note)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, ev)
}

func (h *Handler) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warnf("encoding response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errs.IsNotFound(err):
		code = http.StatusNotFound
	case errs.IsValidation(err):
		code = http.StatusBadRequest
	case errs.IsTransient(err):
		code = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
