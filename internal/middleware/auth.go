package middleware

import (
	"net/http"
	"strings"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/token"
)

// AuthMiddleware verifies the bearer token and stores the caller's identity
// in the request context. Requests without a valid token never reach next.
func AuthMiddleware(tokens token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				WriteError(w, customerrors.ErrUnauthorized)
				return
			}
			claims, err := tokens.Verify(tokenString)
			if err != nil {
				WriteError(w, customerrors.ErrUnauthorized)
				return
			}
			identity, err := claims.Identity()
			if err != nil {
				WriteError(w, customerrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, tokenString, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tokenString = strings.TrimSpace(tokenString)
	return tokenString, tokenString != ""
}
