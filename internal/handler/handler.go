package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/config"
	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/middleware"
	"github.com/Dan9191/worklog-service/internal/service"
	"github.com/Dan9191/worklog-service/internal/token"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.Service
	log *logrus.Logger
	now func() time.Time
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, now: time.Now}
}

// NewRouter wires every API route behind the auth guard, admin gate,
// request logging, metrics, CORS and security headers.
func NewRouter(h *Handler, tokens token.Issuer, cfg *config.Config) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = h.wrap(func(w http.ResponseWriter, r *http.Request) error {
		return customerrors.ErrNotFound
	})
	r.MethodNotAllowedHandler = h.wrap(func(w http.ResponseWriter, r *http.Request) error {
		return customerrors.ErrMethodNotAllowed
	})
	r.Use(middleware.Logging(h.log), middleware.Metrics)

	// Public routes
	r.Handle("/health", h.wrap(h.Health)).Methods(http.MethodGet)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	r.Handle("/api/auth/login", h.wrap(h.Login)).Methods(http.MethodPost)

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(tokens))
	api.Handle("/auth/me", h.wrap(h.Me)).Methods(http.MethodGet)
	api.Handle("/projects", h.wrap(h.ListProjects)).Methods(http.MethodGet)
	api.Handle("/projects", h.admin(h.CreateProject)).Methods(http.MethodPost)
	api.Handle("/users", h.admin(h.ListUsers)).Methods(http.MethodGet)
	api.Handle("/users", h.admin(h.CreateUser)).Methods(http.MethodPost)
	api.Handle("/work-logs", h.wrap(h.ListWorkLogs)).Methods(http.MethodGet)
	api.Handle("/work-logs", h.wrap(h.CreateWorkLog)).Methods(http.MethodPost)
	api.Handle("/work-logs/export", h.wrap(h.ExportWorkLogs)).Methods(http.MethodGet)
	api.Handle("/work-logs/{id}", h.admin(h.DeleteWorkLog)).Methods(http.MethodDelete)

	var handler http.Handler = r
	handler = middleware.Secure(middleware.SecureOptions(cfg.IsDevelopment()))(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	return handler
}

func (h *Handler) wrap(fn middleware.HandlerFunc) http.Handler {
	return middleware.ErrorHandler(h.log, fn)
}

// admin gates fn on the admin claim, before any body parsing
func (h *Handler) admin(fn middleware.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h.wrap(fn))
}

// decode reads a single JSON value from the request body into v. Type
// mismatches are reported as field issues.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		if dec.Decode(&struct{}{}) != io.EOF {
			return customerrors.ErrBadRequest
		}
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return customerrors.NewValidation(map[string][]string{
			typeErr.Field: {fmt.Sprintf("cannot be a JSON %s", typeErr.Value)},
		})
	}
	return customerrors.ErrBadRequest
}
