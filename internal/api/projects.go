package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// ListProjects handles GET /api/projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projects, err := h.store.ListProjects(r.Context(), UserID(r), store.ProjectFilter{
		Folder: q.Get("folder"),
		Area:   q.Get("area"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"total":    len(projects),
	})
}

// CreateProject handles POST /api/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decode(w, r, &req) {
		return
	}
	project, err := h.store.CreateProject(r.Context(), UserID(r), models.ProjectCreate{
		Title:   req.Title,
		Area:    req.Area,
		Folder:  models.ProjectFolder(req.Folder),
		Type:    models.ProjectType(req.Type),
		Due:     parseDate(req.Due),
		Content: req.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("project", "created", project.Slug)
	writeJSON(w, http.StatusCreated, project)
}

// GetProject handles GET /api/projects/{slug}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.GetProjectBySlug(r.Context(), UserID(r), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// UpdateProject handles PUT /api/projects/{slug}.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	upd := models.ProjectUpdate{
		Title:   req.Title,
		Area:    req.Area,
		Content: req.Content,
	}
	if req.Folder != nil {
		f := models.ProjectFolder(*req.Folder)
		upd.Folder = &f
	}
	if req.Type != nil {
		t := models.ProjectType(*req.Type)
		upd.Type = &t
	}
	if req.Due != nil {
		upd.Due = parseDate(*req.Due)
	}
	project, err := h.store.UpdateProject(r.Context(), UserID(r), chi.URLParam(r, "slug"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	h.publish("project", "updated", project.Slug)
	writeJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/{slug}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.store.DeleteProject(r.Context(), UserID(r), slug); err != nil {
		writeError(w, err)
		return
	}
	h.publish("project", "deleted", slug)
	w.WriteHeader(http.StatusNoContent)
}
