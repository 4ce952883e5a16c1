package customerrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Error is an API error carrying its HTTP status
type Error struct {
	Code    int
	Message string
	Issues  map[string][]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

var (
	ErrBadRequest            = &Error{Code: http.StatusBadRequest, Message: "invalid request body"}
	ErrInvalidID             = &Error{Code: http.StatusBadRequest, Message: "invalid id format"}
	ErrInvalidQuery          = &Error{Code: http.StatusBadRequest, Message: "invalid query parameters"}
	ErrInvalidUserOrProject  = &Error{Code: http.StatusBadRequest, Message: "invalid user or project"}
	ErrUnauthorized          = &Error{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrInvalidCredentials    = &Error{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	ErrForbidden             = &Error{Code: http.StatusForbidden, Message: "forbidden"}
	ErrWorkLogNotFound       = &Error{Code: http.StatusNotFound, Message: "work log not found"}
	ErrNotFound              = &Error{Code: http.StatusNotFound, Message: "not found"}
	ErrMethodNotAllowed      = &Error{Code: http.StatusMethodNotAllowed, Message: "method not allowed"}
	ErrUsernameAlreadyExists = &Error{Code: http.StatusConflict, Message: "username already exists"}
	ErrProjectAlreadyExists  = &Error{Code: http.StatusConflict, Message: "project already exists"}
	ErrInternalServer        = &Error{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrDbUnreachable         = &Error{Code: http.StatusServiceUnavailable, Message: "database unreachable"}
)

// NewValidation returns a 400 error with per-field issues
func NewValidation(issues map[string][]string) *Error {
	return &Error{
		Code:    http.StatusBadRequest,
		Message: ErrBadRequest.Message,
		Issues:  issues,
	}
}

// GetStatus returns the HTTP status for err
func GetStatus(err error) int {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Code
	}

	switch {
	case errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenMalformed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage returns the client-facing message for err. Errors outside the
// taxonomy never leak their text.
func GetMessage(err error) string {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	if GetStatus(err) == http.StatusUnauthorized {
		return ErrUnauthorized.Message
	}
	return ErrInternalServer.Message
}

// GetIssues returns the field issues attached to err, if any
func GetIssues(err error) map[string][]string {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Issues
	}
	return nil
}
