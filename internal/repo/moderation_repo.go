package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// ModerationRepo defines the interface for moderation queue operations
type ModerationRepo interface {
	Create(ctx context.Context, kind model.SubmissionKind, content string, authorName, authorEmail *string, score int, isSpam bool, priority string, status model.ModerationStatus) (model.ModerationEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.ModerationEntry, error)
	ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]model.ModerationEntry, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.ModerationStatus) (model.ModerationEntry, error)
	// UpdateScore rewrites the persisted spam decision after a re-score.
	UpdateScore(ctx context.Context, id uuid.UUID, score int, isSpam bool, priority string) (model.ModerationEntry, error)
}

type moderationRepo struct {
	db *sql.DB
}

// NewModerationRepo creates a new ModerationRepo instance
func NewModerationRepo(db *sql.DB) ModerationRepo {
	return &moderationRepo{db: db}
}

const moderationColumns = `id, kind, content, author_name, author_email, score, is_spam, priority, status, created_at, updated_at`

func scanModerationEntry(scan func(dest ...any) error) (model.ModerationEntry, error) {
	var e model.ModerationEntry
	var idStr string
	err := scan(
		&idStr,
		&e.Kind,
		&e.Content,
		&e.AuthorName,
		&e.AuthorEmail,
		&e.Score,
		&e.IsSpam,
		&e.Priority,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ModerationEntry{}, ErrNotFound
		}
		return model.ModerationEntry{}, fmt.Errorf("scan moderation entry: %w", err)
	}
	e.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.ModerationEntry{}, fmt.Errorf("parse entry ID: %w", err)
	}
	return e, nil
}

// Create inserts a submission with its derived spam decision.
func (r *moderationRepo) Create(ctx context.Context, kind model.SubmissionKind, content string, authorName, authorEmail *string, score int, isSpam bool, priority string, status model.ModerationStatus) (model.ModerationEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO moderation_queue (kind, content, author_name, author_email, score, is_spam, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+moderationColumns+`
	`, kind, content, authorName, authorEmail, score, isSpam, priority, status)
	e, err := scanModerationEntry(row.Scan)
	if err != nil {
		return model.ModerationEntry{}, fmt.Errorf("insert moderation entry: %w", err)
	}
	return e, nil
}

// GetByID retrieves a queue entry by ID
func (r *moderationRepo) GetByID(ctx context.Context, id uuid.UUID) (model.ModerationEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+moderationColumns+` FROM moderation_queue WHERE id = $1
	`, id)
	return scanModerationEntry(row.Scan)
}

// ListByStatus returns entries in the given state, urgent first, newest first
// within the same tier.
func (r *moderationRepo) ListByStatus(ctx context.Context, status model.ModerationStatus, limit int) ([]model.ModerationEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+moderationColumns+` FROM moderation_queue
		WHERE status = $1
		ORDER BY CASE priority
			WHEN 'urgent' THEN 0
			WHEN 'high'   THEN 1
			WHEN 'normal' THEN 2
			ELSE 3
		END, created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list moderation entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ModerationEntry
	for rows.Next() {
		e, err := scanModerationEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation entries: %w", err)
	}
	return entries, nil
}

// SetStatus transitions a queue entry to the given state.
func (r *moderationRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.ModerationStatus) (model.ModerationEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE moderation_queue
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+moderationColumns+`
	`, id, status)
	return scanModerationEntry(row.Scan)
}

// UpdateScore rewrites the persisted spam decision.
func (r *moderationRepo) UpdateScore(ctx context.Context, id uuid.UUID, score int, isSpam bool, priority string) (model.ModerationEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE moderation_queue
		SET score = $2, is_spam = $3, priority = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+moderationColumns+`
	`, id, score, isSpam, priority)
	return scanModerationEntry(row.Scan)
}
