package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
)

const adminKey contextKey = "admin"

// AdminAuth validates the Bearer token on admin API requests.
func AdminAuth(tokens *auth.AdminTokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin returns the admin claims attached by AdminAuth.
func GetAdmin(ctx context.Context) (*auth.AdminClaims, bool) {
	claims, ok := ctx.Value(adminKey).(*auth.AdminClaims)
	return claims, ok
}
