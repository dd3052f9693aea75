package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/http/handlers"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/middleware"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	commentHandler *handlers.CommentHandler,
	adminHandler *handlers.AdminHandler,
	authService *auth.Service,
	adminTokens *auth.AdminTokenService,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	// IP limiters in front of the auth POSTs; the per-email limit is enforced
	// in the service against the code history.
	requestLimiter := middleware.NewRateLimiter(10*time.Minute, 10)
	verifyLimiter := middleware.NewRateLimiter(10*time.Minute, 20)

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(requestLimiter)).Post("/request_code", authHandler.HandleRequestCode)
		r.With(middleware.RateLimit(verifyLimiter)).Post("/verify_code", authHandler.HandleVerifyCode)
		r.Post("/logout", authHandler.HandleLogout)
	})

	r.Get("/me", authHandler.HandleMe)

	// Profile updates require a valid session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.MemberAuth(authService))
		r.Patch("/me/profile", authHandler.HandleUpdateProfile)
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", commentHandler.HandleListApproved)
		r.Post("/", commentHandler.HandleCreate)
	})

	// Admin API, bearer-token protected.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(adminTokens))
		r.Get("/moderation", adminHandler.HandleListQueue)
		r.Post("/moderation/{id}/approve", adminHandler.HandleSetStatus(model.StatusApproved))
		r.Post("/moderation/{id}/reject", adminHandler.HandleSetStatus(model.StatusRejected))
		r.Post("/moderation/{id}/rescore", adminHandler.HandleRescore)
		r.Post("/spam/check", adminHandler.HandleCheck)
	})

	return r
}
