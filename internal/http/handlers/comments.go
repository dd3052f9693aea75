package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/mailer"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/repo"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/spam"
)

// CommentHandler handles free-text submission intake (comments and reviews).
// Every submission is scored; clearly-safe ones bypass moderation through the
// auto-approve gate, everything else waits for review. Spam triggers an admin
// alert mail.
type CommentHandler struct {
	moderation repo.ModerationRepo
	checker    *spam.Checker
	mail       mailer.Mailer
	adminEmail string
	logger     *zap.Logger
}

// NewCommentHandler creates a new comment handler. adminEmail may be empty,
// in which case alert mails are skipped.
func NewCommentHandler(moderation repo.ModerationRepo, checker *spam.Checker, mail mailer.Mailer, adminEmail string, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		moderation: moderation,
		checker:    checker,
		mail:       mail,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// createSubmissionRequest is the request body for POST /comments
type createSubmissionRequest struct {
	Kind        string `json:"kind"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// submissionResponse reports the intake decision to the submitter
type submissionResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleCreate handles POST /comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	kind := model.SubmissionKind(req.Kind)
	if kind == "" {
		kind = model.KindComment
	}
	if kind != model.KindComment && kind != model.KindReview {
		respondWithError(w, http.StatusBadRequest, "kind must be comment or review")
		return
	}

	result := h.checker.Check(req.Content, req.AuthorName, req.AuthorEmail)
	priority := spam.ModerationPriority(result.Score)

	status := model.StatusPending
	if h.checker.ShouldAutoApprove(req.Content, req.AuthorName) {
		status = model.StatusApproved
	}

	var authorName, authorEmail *string
	if req.AuthorName != "" {
		authorName = &req.AuthorName
	}
	if req.AuthorEmail != "" {
		authorEmail = &req.AuthorEmail
	}

	entry, err := h.moderation.Create(r.Context(), kind, req.Content, authorName, authorEmail, result.Score, result.IsSpam, priority, status)
	if err != nil {
		h.logger.Error("create moderation entry", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	if result.IsSpam {
		h.notifyAdmin(entry, result)
	}

	message := "Vielen Dank! Ihr Beitrag wurde veröffentlicht."
	if status == model.StatusPending {
		message = "Vielen Dank! Ihr Beitrag wird vor der Veröffentlichung geprüft."
	}

	respondJSON(w, http.StatusCreated, submissionResponse{
		ID:      entry.ID.String(),
		Status:  string(entry.Status),
		Message: message,
	})
}

// HandleListApproved handles GET /comments
func (h *CommentHandler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	entries, err := h.moderation.ListByStatus(r.Context(), model.StatusApproved, 50)
	if err != nil {
		h.logger.Error("list approved entries", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	type publicEntry struct {
		ID         string    `json:"id"`
		Kind       string    `json:"kind"`
		Content    string    `json:"content"`
		AuthorName *string   `json:"author_name"`
		CreatedAt  time.Time `json:"created_at"`
	}

	out := make([]publicEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, publicEntry{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			Content:    e.Content,
			AuthorName: e.AuthorName,
			CreatedAt:  e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// notifyAdmin fires the moderation alert mail. Failures are logged and never
// reach the submitter; the request is not delayed by the send.
func (h *CommentHandler) notifyAdmin(entry model.ModerationEntry, result spam.Result) {
	if h.adminEmail == "" {
		return
	}

	subject := fmt.Sprintf("Spam-Verdacht in der Moderationswarteschlange (%s)", entry.Priority)
	body := fmt.Sprintf(`<p>Ein neuer Beitrag wurde als Spam eingestuft.</p>
<p>Score: %d, Priorität: %s, Konfidenz: %s</p>
<p>Gründe:</p><ul>`, result.Score, entry.Priority, result.Confidence)
	for _, reason := range result.Reasons {
		body += "<li>" + reason + "</li>"
	}
	body += "</ul>"

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.mail.SendModerationAlert(ctx, h.adminEmail, subject, body); err != nil {
			h.logger.Error("send moderation alert", zap.Error(err))
		}
	}()
}
