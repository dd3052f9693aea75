package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/repo"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/spam"
)

// AdminHandler exposes the moderation queue to admin tooling
type AdminHandler struct {
	moderation repo.ModerationRepo
	checker    *spam.Checker
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(moderation repo.ModerationRepo, checker *spam.Checker, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{moderation: moderation, checker: checker, logger: logger}
}

// adminEntry is the full queue entry, including the persisted spam decision
type adminEntry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	AuthorName  *string   `json:"author_name"`
	AuthorEmail *string   `json:"author_email"`
	Score       int       `json:"score"`
	IsSpam      bool      `json:"is_spam"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAdminEntry(e model.ModerationEntry) adminEntry {
	return adminEntry{
		ID:          e.ID.String(),
		Kind:        string(e.Kind),
		Content:     e.Content,
		AuthorName:  e.AuthorName,
		AuthorEmail: e.AuthorEmail,
		Score:       e.Score,
		IsSpam:      e.IsSpam,
		Priority:    e.Priority,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// HandleListQueue handles GET /admin/moderation?status=pending
func (h *AdminHandler) HandleListQueue(w http.ResponseWriter, r *http.Request) {
	status := model.ModerationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.StatusPending
	}
	if status != model.StatusPending && status != model.StatusApproved && status != model.StatusRejected {
		respondWithError(w, http.StatusBadRequest, "invalid status")
		return
	}

	entries, err := h.moderation.ListByStatus(r.Context(), status, 200)
	if err != nil {
		h.logger.Error("list moderation queue", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	out := make([]adminEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAdminEntry(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// HandleSetStatus handles POST /admin/moderation/{id}/approve and /reject
func (h *AdminHandler) HandleSetStatus(status model.ModerationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid entry id")
			return
		}

		entry, err := h.moderation.SetStatus(r.Context(), id, status)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "entry not found")
				return
			}
			h.logger.Error("set moderation status", zap.Error(err))
			respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"entry": toAdminEntry(entry)})
	}
}

// HandleRescore handles POST /admin/moderation/{id}/rescore: re-runs the
// checker against the stored content and persists the fresh decision.
func (h *AdminHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	entry, err := h.moderation.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "entry not found")
			return
		}
		h.logger.Error("load moderation entry", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var name, email string
	if entry.AuthorName != nil {
		name = *entry.AuthorName
	}
	if entry.AuthorEmail != nil {
		email = *entry.AuthorEmail
	}
	result := h.checker.Check(entry.Content, name, email)

	updated, err := h.moderation.UpdateScore(r.Context(), id, result.Score, result.IsSpam, spam.ModerationPriority(result.Score))
	if err != nil {
		h.logger.Error("update moderation score", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entry":   toAdminEntry(updated),
		"reasons": result.Reasons,
	})
}

// checkRequest is the request body for POST /admin/spam/check
type checkRequest struct {
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// HandleCheck handles POST /admin/spam/check: ad-hoc scoring for admin tooling
// without touching the queue.
func (h *AdminHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	result := h.checker.Check(req.Content, req.AuthorName, req.AuthorEmail)
	respondJSON(w, http.StatusOK, map[string]any{
		"is_spam":    result.IsSpam,
		"score":      result.Score,
		"reasons":    result.Reasons,
		"confidence": result.Confidence,
		"priority":   spam.ModerationPriority(result.Score),
	})
}
