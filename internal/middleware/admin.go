package middleware

import (
	"net/http"

	"github.com/Dan9191/worklog-service/internal/customerrors"
)

// RequireAdmin rejects callers whose token lacks the admin claim. It must
// run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			WriteError(w, customerrors.ErrUnauthorized)
			return
		}
		if !identity.IsAdmin {
			WriteError(w, customerrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
