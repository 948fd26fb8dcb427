package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// StartTimer handles POST /api/timers/start.
func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req startTimerRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.store.StartTimer(r.Context(), UserID(r), req.ProjectSlug, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("timer", "started", entry.ID)
	writeJSON(w, http.StatusCreated, entry)
}

// StopTimer handles POST /api/timers/stop.
func (h *Handler) StopTimer(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.StopTimer(r.Context(), UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("timer", "stopped", entry.ID)
	writeJSON(w, http.StatusOK, entry)
}

// CurrentTimer handles GET /api/timers/current.
func (h *Handler) CurrentTimer(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.RunningTimer(r.Context(), UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListTimeEntries handles GET /api/timers.
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListTimeEntries(r.Context(), UserID(r), store.TimeEntryFilter{
		ProjectSlug: r.URL.Query().Get("project"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.TimeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

// CreateTimeEntry handles POST /api/timers (manual entry).
func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req createTimeEntryRequest
	if !decode(w, r, &req) {
		return
	}
	start := parseTime(req.StartTime)
	if start == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("start_time is required"))
		return
	}
	entry, err := h.store.CreateTimeEntry(r.Context(), UserID(r), models.TimeEntryCreate{
		ProjectSlug:     req.ProjectSlug,
		Description:     req.Description,
		StartTime:       *start,
		EndTime:         parseTime(req.EndTime),
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("timer", "created", entry.ID)
	writeJSON(w, http.StatusCreated, entry)
}

// UpdateTimeEntry handles PUT /api/timers/{id}.
func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req updateTimeEntryRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.TimeEntryUpdate{
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if req.EndTime != nil {
		if t := parseTime(*req.EndTime); t != nil {
			upd.EndTime = t
		}
	}
	entry, err := h.store.UpdateTimeEntry(r.Context(), UserID(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("timer", "updated", entry.ID)
	writeJSON(w, http.StatusOK, entry)
}

// DeleteTimeEntry handles DELETE /api/timers/{id}.
func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteTimeEntry(r.Context(), UserID(r), id); err != nil {
		writeError(w, err)
		return
	}
	h.publish("timer", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
