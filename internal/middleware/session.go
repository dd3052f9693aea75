package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// SessionCookieName is the cookie carrying the opaque member session token.
const SessionCookieName = "member_session"

type contextKey string

const memberKey contextKey = "member"

// MemberAuth resolves the session cookie to a member and requires success.
// An invalid, expired or absent session is a plain 401; deactivated members
// lose access on their next request.
func MemberAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member := ResolveSession(r, authService)
			if member == nil {
				respondWithError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			ctx := context.WithValue(r.Context(), memberKey, member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveSession reads the session cookie and validates it. Nil means "not
// logged in", which is an expected state, not an error.
func ResolveSession(r *http.Request, authService *auth.Service) *model.Member {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return authService.ValidateSession(r.Context(), cookie.Value)
}

// GetMember returns the member attached to the request context by MemberAuth.
func GetMember(ctx context.Context) (*model.Member, bool) {
	m, ok := ctx.Value(memberKey).(*model.Member)
	return m, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
