package handler

import (
	"net/http"

	"github.com/Dan9191/worklog-service/internal/middleware"
)

// Health reports whether the service can reach its database
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return nil
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}
