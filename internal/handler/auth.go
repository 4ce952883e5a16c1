package handler

import (
	"net/http"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/middleware"
	"github.com/Dan9191/worklog-service/internal/models"
)

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req models.LoginRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	res, err := h.svc.Login(r.Context(), req)
	middleware.RecordLoginAttempt(err == nil)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusOK, res)
	return nil
}

// Me returns the identity carried by the caller's token
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return customerrors.ErrUnauthorized
	}
	middleware.WriteJSON(w, http.StatusOK, identity)
	return nil
}
