package handler

import (
	"net/http"

	"github.com/Dan9191/worklog-service/internal/middleware"
	"github.com/Dan9191/worklog-service/internal/models"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) error {
	projects, err := h.svc.ListProjects(r.Context())
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, projects)
	return nil
}

// CreateProject handles project creation
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateProjectRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	project, err := h.svc.CreateProject(r.Context(), req)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusCreated, project)
	return nil
}
