package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/middleware"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// AuthHandler handles the passwordless authentication endpoints
type AuthHandler struct {
	authService   *auth.Service
	logger        *zap.Logger
	cookieTTL     time.Duration
	secureCookies bool
}

// NewAuthHandler creates a new auth handler. secureCookies should be false
// only in local development over plain HTTP.
func NewAuthHandler(authService *auth.Service, logger *zap.Logger, cookieTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		logger:        logger,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

// requestCodeRequest is the request body for POST /auth/request_code
type requestCodeRequest struct {
	Email string `json:"email"`
}

// verifyCodeRequest is the request body for POST /auth/verify_code
type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// statusResponse is the {success, message} envelope shared by the auth endpoints
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// memberResponse is the member object in API responses
type memberResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"display_name"`
	Bio         *string    `json:"bio"`
	AvatarURL   *string    `json:"avatar_url"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// verifyCodeResponse is the JSON response for a successful verification
type verifyCodeResponse struct {
	Success   bool           `json:"success"`
	Member    memberResponse `json:"member"`
	NewMember bool           `json:"new_member"`
}

func toMemberResponse(m model.Member) memberResponse {
	return memberResponse{
		ID:          m.ID.String(),
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Bio:         m.Bio,
		AvatarURL:   m.AvatarURL,
		IsVerified:  m.IsVerified,
		CreatedAt:   m.CreatedAt,
		LastLoginAt: m.LastLoginAt,
	}
}

// HandleRequestCode handles POST /auth/request_code
func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	email := auth.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		respondJSON(w, http.StatusBadRequest, statusResponse{
			Message: "Bitte geben Sie eine gültige E-Mail-Adresse an.",
		})
		return
	}

	result := h.authService.RequestLoginCode(r.Context(), email, middleware.ClientIP(r))
	if !result.OK {
		respondJSON(w, statusForKind(result.Kind), statusResponse{
			Message: result.Kind.Message(),
		})
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Message: "Ein Login-Code wurde an Ihre E-Mail-Adresse gesendet.",
	})
}

// HandleVerifyCode handles POST /auth/verify_code. On success the session
// token is placed into a persistent HTTP-only cookie; it is never part of the
// response body.
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	result := h.authService.VerifyLoginCode(r.Context(), req.Email, req.Code, middleware.ClientIP(r), r.UserAgent())
	if !result.OK {
		h.logger.Info("code verification failed", zap.String("kind", result.Kind.String()))
		respondJSON(w, statusForKind(result.Kind), statusResponse{
			Message: result.Kind.Message(),
		})
		return
	}

	h.setSessionCookie(w, result.Token)
	respondJSON(w, http.StatusOK, verifyCodeResponse{
		Success:   true,
		Member:    toMemberResponse(result.Member),
		NewMember: result.NewMember,
	})
}

// HandleMe handles GET /me. Returns the current member or null; an absent or
// invalid session is not an error.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	member := middleware.ResolveSession(r, h.authService)
	if member == nil {
		respondJSON(w, http.StatusOK, map[string]any{"member": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"member": toMemberResponse(*member)})
}

// HandleLogout handles POST /auth/logout. Idempotent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authService.Logout(r.Context(), cookie.Value)
	}
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Abgemeldet."})
}

// profileUpdateRequest is the request body for PATCH /me/profile. Omitted
// fields keep their prior values.
type profileUpdateRequest struct {
	DisplayName *string `json:"name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

// HandleUpdateProfile handles PATCH /me/profile (requires a valid session)
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	member, ok := middleware.GetMember(r.Context())
	if !ok || member == nil {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated := h.authService.UpdateMemberProfile(r.Context(), member.ID, auth.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if updated == nil {
		respondWithError(w, http.StatusNotFound, "member not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"member": toMemberResponse(*updated)})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// statusForKind maps a failure kind to an HTTP status. The message itself
// comes from the kind; handlers never build messages by hand.
func statusForKind(kind auth.FailureKind) int {
	switch kind {
	case auth.KindRateLimited:
		return http.StatusTooManyRequests
	case auth.KindInvalidCode, auth.KindExpired, auth.KindAlreadyUsed:
		return http.StatusUnauthorized
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}
