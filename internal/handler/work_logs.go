package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/export"
	"github.com/Dan9191/worklog-service/internal/middleware"
	"github.com/Dan9191/worklog-service/internal/models"
)

// ListWorkLogs returns work logs, optionally filtered by from, to,
// projectId and userId query parameters
func (h *Handler) ListWorkLogs(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		return err
	}

	entries, err := h.svc.ListWorkLogs(r.Context(), filter)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusOK, entries)
	return nil
}

// CreateWorkLog records hours for the caller, or for anyone when the
// caller is an admin
func (h *Handler) CreateWorkLog(w http.ResponseWriter, r *http.Request) error {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return customerrors.ErrUnauthorized
	}

	var req models.CreateWorkLogRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	wl, err := h.svc.CreateWorkLog(r.Context(), actor, req)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusCreated, wl)
	return nil
}

func (h *Handler) DeleteWorkLog(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.svc.DeleteWorkLog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, deleted)
	return nil
}

// ExportWorkLogs renders the filtered work logs as an XML timesheet
func (h *Handler) ExportWorkLogs(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		return err
	}

	entries, err := h.svc.ListWorkLogs(r.Context(), filter)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timesheet.xml"`)
	w.WriteHeader(http.StatusOK)
	period := export.Period{From: filter.From, To: filter.To}
	if err := export.WriteTimesheet(w, period, entries, h.now()); err != nil {
		// Headers are already sent.
		h.log.Errorf("Failed to write timesheet: %v", err)
	}
	return nil
}

func parseFilter(q url.Values) (models.WorkLogFilter, error) {
	var filter models.WorkLogFilter
	issues := map[string][]string{}

	parseDate := func(key string) *time.Time {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			issues[key] = append(issues[key], "must be a date in YYYY-MM-DD format")
			return nil
		}
		return &d
	}
	parseID := func(key string) *uuid.UUID {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			issues[key] = append(issues[key], "must be a valid UUID")
			return nil
		}
		return &id
	}

	filter.From = parseDate("from")
	filter.To = parseDate("to")
	filter.ProjectID = parseID("projectId")
	filter.UserID = parseID("userId")

	if len(issues) > 0 {
		return filter, &customerrors.Error{
			Code:    customerrors.ErrInvalidQuery.Code,
			Message: customerrors.ErrInvalidQuery.Message,
			Issues:  issues,
		}
	}
	return filter, nil
}
