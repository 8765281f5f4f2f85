package middleware

import (
	"net/http"
	"strings"

	"github.com/imagehub/backend/internal/auth"
	"github.com/imagehub/backend/internal/response"
)

// TokenVerifier decodes a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth is middleware that validates the bearer token in the
// Authorization header and injects the caller identity into the request context.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				response.Fail(w, http.StatusUnauthorized, "Access denied. No token provided. Please login to continue")
				return
			}

			id, err := tokens.Verify(token)
			if err != nil {
				response.Fail(w, http.StatusUnauthorized, "Access denied. Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
