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

// ErrRateLimited is returned by CreateWithinLimit when the rolling window is full.
var ErrRateLimited = errors.New("rate limit exceeded")

// LoginCodeRepo defines the interface for login code repository operations
type LoginCodeRepo interface {
	// CreateWithinLimit atomically counts codes created for the email since
	// the given time and inserts a new one only if the count is below max.
	// Returns ErrRateLimited when the window is full.
	CreateWithinLimit(ctx context.Context, email, code string, expiresAt time.Time, requestIP *string, since time.Time, max int) (model.LoginCode, error)
	// FindActive returns the matching unused, unexpired code row.
	FindActive(ctx context.Context, email, code string) (model.LoginCode, error)
	// FindAny returns the most recent row matching (email, code) regardless of
	// used/expiry status. Used for the diagnostic failure-reason lookup.
	FindAny(ctx context.Context, email, code string) (model.LoginCode, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	IncrementAttempt(ctx context.Context, id uuid.UUID) (newAttemptCount int, err error)
	CountRecentRequests(ctx context.Context, email string, since time.Time) (int, error)
}

type loginCodeRepo struct {
	db *sql.DB
}

// NewLoginCodeRepo creates a new LoginCodeRepo instance
func NewLoginCodeRepo(db *sql.DB) LoginCodeRepo {
	return &loginCodeRepo{db: db}
}

const loginCodeColumns = `id, email, code, created_at, expires_at, used_at, attempt_count, request_ip`

func scanLoginCode(row *sql.Row) (model.LoginCode, error) {
	var c model.LoginCode
	var idStr string
	err := row.Scan(
		&idStr,
		&c.Email,
		&c.Code,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.UsedAt,
		&c.AttemptCount,
		&c.RequestIP,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LoginCode{}, ErrNotFound
		}
		return model.LoginCode{}, fmt.Errorf("scan login code: %w", err)
	}
	c.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.LoginCode{}, fmt.Errorf("parse code ID: %w", err)
	}
	return c, nil
}

// CreateWithinLimit runs count-then-insert in one transaction under a per-email
// advisory lock, so concurrent requests for the same email cannot both pass
// the window check.
func (r *loginCodeRepo) CreateWithinLimit(ctx context.Context, email, code string, expiresAt time.Time, requestIP *string, since time.Time, max int) (model.LoginCode, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.LoginCode{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize per email; released on COMMIT/ROLLBACK.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(1, hashtext($1))`, email); err != nil {
		return model.LoginCode{}, fmt.Errorf("advisory lock: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_codes
		WHERE email = $1 AND created_at >= $2
	`, email, since).Scan(&count)
	if err != nil {
		return model.LoginCode{}, fmt.Errorf("count recent codes: %w", err)
	}
	if count >= max {
		return model.LoginCode{}, ErrRateLimited
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO login_codes (email, code, expires_at, request_ip)
		VALUES ($1, $2, $3, $4)
		RETURNING `+loginCodeColumns+`
	`, email, code, expiresAt, requestIP)
	created, err := scanLoginCode(row)
	if err != nil {
		return model.LoginCode{}, fmt.Errorf("insert login code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.LoginCode{}, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// FindActive returns the matching unused, unexpired code row.
func (r *loginCodeRepo) FindActive(ctx context.Context, email, code string) (model.LoginCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+loginCodeColumns+` FROM login_codes
		WHERE email = $1 AND code = $2
		  AND used_at IS NULL
		  AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
	`, email, code)
	return scanLoginCode(row)
}

// FindAny returns the most recent (email, code) row ignoring used/expiry status.
func (r *loginCodeRepo) FindAny(ctx context.Context, email, code string) (model.LoginCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+loginCodeColumns+` FROM login_codes
		WHERE email = $1 AND code = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, email, code)
	return scanLoginCode(row)
}

// MarkUsed sets used_at = now() for the code.
func (r *loginCodeRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE login_codes SET used_at = now() WHERE id = $1 AND used_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAttempt bumps attempt_count; returns the new count.
func (r *loginCodeRepo) IncrementAttempt(ctx context.Context, id uuid.UUID) (int, error) {
	var newCount int
	err := r.db.QueryRowContext(ctx, `
		UPDATE login_codes
		SET attempt_count = attempt_count + 1
		WHERE id = $1
		RETURNING attempt_count
	`, id).Scan(&newCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment attempt: %w", err)
	}
	return newCount, nil
}

// CountRecentRequests returns how many codes were created for the email since
// the given time.
func (r *loginCodeRepo) CountRecentRequests(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_codes
		WHERE email = $1 AND created_at >= $2
	`, email, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent requests: %w", err)
	}
	return count, nil
}
