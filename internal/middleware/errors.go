package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/customerrors"
)

// HandlerFunc is an HTTP handler that reports failures as errors
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type errorBody struct {
	Message string       `json:"message"`
	Issues  *fieldErrors `json:"issues,omitempty"`
}

type fieldErrors struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// ErrorHandler adapts h to http.HandlerFunc, translating returned errors
// into JSON error responses. Server errors are logged with their cause.
func ErrorHandler(log *logrus.Logger, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		if status := customerrors.GetStatus(err); status >= http.StatusInternalServerError {
			log.WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
		}
		WriteError(w, err)
	}
}

// WriteError writes err as {"message", "issues"} with its mapped status
func WriteError(w http.ResponseWriter, err error) {
	body := errorBody{Message: customerrors.GetMessage(err)}
	if issues := customerrors.GetIssues(err); len(issues) > 0 {
		body.Issues = &fieldErrors{FieldErrors: issues}
	}
	WriteJSON(w, customerrors.GetStatus(err), body)
}

// WriteJSON writes v as a JSON response with status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
