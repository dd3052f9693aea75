package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// SessionRepo defines the interface for member session repository operations
type SessionRepo interface {
	Create(ctx context.Context, memberID uuid.UUID, token string, expiresAt time.Time, userAgent, requestIP *string) (model.MemberSession, error)
	// FindActiveByToken returns the session if the token matches and it has
	// not expired. Expiry is fixed at issuance; there is no sliding window.
	FindActiveByToken(ctx context.Context, token string) (model.MemberSession, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
	// DeleteByToken removes the session if present. Unknown tokens are a no-op.
	DeleteByToken(ctx context.Context, token string) error
}

type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo instance
func NewSessionRepo(db *sql.DB) SessionRepo {
	return &sessionRepo{db: db}
}

const sessionColumns = `id, member_id, token, created_at, expires_at, last_used_at, user_agent, request_ip`

func scanSession(row *sql.Row) (model.MemberSession, error) {
	var s model.MemberSession
	var idStr, memberIDStr string
	err := row.Scan(
		&idStr,
		&memberIDStr,
		&s.Token,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.LastUsedAt,
		&s.UserAgent,
		&s.RequestIP,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MemberSession{}, ErrNotFound
		}
		return model.MemberSession{}, fmt.Errorf("scan session: %w", err)
	}
	s.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.MemberSession{}, fmt.Errorf("parse session ID: %w", err)
	}
	s.MemberID, err = uuid.Parse(memberIDStr)
	if err != nil {
		return model.MemberSession{}, fmt.Errorf("parse member ID: %w", err)
	}
	return s, nil
}

// Create inserts a new member session
func (r *sessionRepo) Create(ctx context.Context, memberID uuid.UUID, token string, expiresAt time.Time, userAgent, requestIP *string) (model.MemberSession, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO member_sessions (member_id, token, expires_at, user_agent, request_ip)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+sessionColumns+`
	`, memberID, token, expiresAt, userAgent, requestIP)
	s, err := scanSession(row)
	if err != nil {
		return model.MemberSession{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// FindActiveByToken returns the unexpired session matching the token.
func (r *sessionRepo) FindActiveByToken(ctx context.Context, token string) (model.MemberSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM member_sessions
		WHERE token = $1 AND expires_at > now()
	`, token)
	return scanSession(row)
}

// TouchLastUsed sets last_used_at = now(). Telemetry only.
func (r *sessionRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE member_sessions SET last_used_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteByToken removes the session row. Idempotent.
func (r *sessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM member_sessions WHERE token = $1
	`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
