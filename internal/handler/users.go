package handler

import (
	"net/http"

	"github.com/Dan9191/worklog-service/internal/middleware"
	"github.com/Dan9191/worklog-service/internal/models"
)

// CreateUser handles admin user registration
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateUserRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	identity, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusCreated, identity)
	return nil
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, users)
	return nil
}
