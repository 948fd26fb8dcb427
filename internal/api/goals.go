package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// ListGoals handles GET /api/goals.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	goals, err := h.store.ListGoals(r.Context(), UserID(r), store.GoalFilter{
		Folder: q.Get("folder"),
		Area:   q.Get("area"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goals": goals,
		"total": len(goals),
	})
}

// CreateGoal handles POST /api/goals.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if !decode(w, r, &req) {
		return
	}
	goal, err := h.store.CreateGoal(r.Context(), UserID(r), models.GoalCreate{
		Title:   req.Title,
		Area:    req.Area,
		Folder:  models.GoalFolder(req.Folder),
		Content: req.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("goal", "created", goal.Slug)
	writeJSON(w, http.StatusCreated, goal)
}

// GetGoal handles GET /api/goals/{slug}.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.GetGoalBySlug(r.Context(), UserID(r), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// UpdateGoal handles PUT /api/goals/{slug}.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.GoalUpdate{
		Title:   req.Title,
		Area:    req.Area,
		Content: req.Content,
	}
	if req.Folder != nil {
		f := models.GoalFolder(*req.Folder)
		upd.Folder = &f
	}
	goal, err := h.store.UpdateGoal(r.Context(), UserID(r), chi.URLParam(r, "slug"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("goal", "updated", goal.Slug)
	writeJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /api/goals/{slug}.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.store.DeleteGoal(r.Context(), UserID(r), slug); err != nil {
		writeError(w, err)
		return
	}
	h.publish("goal", "deleted", slug)
	w.WriteHeader(http.StatusNoContent)
}
