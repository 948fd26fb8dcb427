package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// ListActions handles GET /api/actions.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actions, err := h.store.ListActions(r.Context(), UserID(r), store.ActionFilter{
		Context:     q.Get("context"),
		ProjectSlug: q.Get("project"),
		State:       q.Get("state"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if actions == nil {
		actions = []models.Action{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": actions,
		"total":   len(actions),
	})
}

// CreateAction handles POST /api/actions.
func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if !decode(w, r, &req) {
		return
	}
	action, err := h.store.CreateAction(r.Context(), UserID(r), models.ActionCreate{
		Text:        req.Text,
		Context:     req.Context,
		ProjectSlug: req.ProjectSlug,
		Due:         parseDate(req.Due),
		Defer:       parseDate(req.Defer),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("action", "created", action.ID)
	writeJSON(w, http.StatusCreated, action)
}

// GetAction handles GET /api/actions/{id}.
func (h *Handler) GetAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.GetAction(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// UpdateAction handles PUT /api/actions/{id}.
func (h *Handler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	var req updateActionRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.ActionUpdate{
		Text:        req.Text,
		Context:     req.Context,
		ProjectSlug: req.ProjectSlug,
	}
	if req.State != nil {
		s := models.ActionState(*req.State)
		upd.State = &s
	}
	if req.Due != nil {
		upd.Due = parseDate(*req.Due)
	}
	if req.Defer != nil {
		upd.Defer = parseDate(*req.Defer)
	}
	action, err := h.store.UpdateAction(r.Context(), UserID(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("action", "updated", action.ID)
	writeJSON(w, http.StatusOK, action)
}

// CompleteAction handles POST /api/actions/{id}/complete.
func (h *Handler) CompleteAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.CompleteAction(r.Context(), UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("action", "completed", action.ID)
	writeJSON(w, http.StatusOK, action)
}

// DeleteAction handles DELETE /api/actions/{id}.
func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteAction(r.Context(), UserID(r), id); err != nil {
		writeError(w, err)
		return
	}
	h.publish("action", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
