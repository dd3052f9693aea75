package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
)

// MemberRepo defines the interface for member repository operations
type MemberRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Member, error)
	GetByEmail(ctx context.Context, email string) (model.Member, error)
	// FindOrCreate returns the member for the normalized email, creating it if
	// absent. The bool reports whether a new row was inserted.
	FindOrCreate(ctx context.Context, email string) (model.Member, bool, error)
	RecordLogin(ctx context.Context, id uuid.UUID) (model.Member, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, bio, avatarURL *string) (model.Member, error)
}

type memberRepo struct {
	db *sql.DB
}

// NewMemberRepo creates a new MemberRepo instance
func NewMemberRepo(db *sql.DB) MemberRepo {
	return &memberRepo{db: db}
}

const memberColumns = `id, email, display_name, bio, avatar_url, is_verified, is_active, created_at, updated_at, last_login_at`

func scanMember(row *sql.Row) (model.Member, error) {
	var m model.Member
	var idStr string
	err := row.Scan(
		&idStr,
		&m.Email,
		&m.DisplayName,
		&m.Bio,
		&m.AvatarURL,
		&m.IsVerified,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, ErrNotFound
		}
		return model.Member{}, fmt.Errorf("scan member: %w", err)
	}
	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Member{}, fmt.Errorf("parse member ID: %w", err)
	}
	return m, nil
}

// GetByID retrieves a member by ID
func (r *memberRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM members WHERE id = $1
	`, id)
	return scanMember(row)
}

// GetByEmail retrieves a member by normalized email
func (r *memberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM members WHERE email = $1
	`, email)
	return scanMember(row)
}

// FindOrCreate inserts the member if missing; ON CONFLICT DO NOTHING RETURNING
// yields a row only when the insert actually happened.
func (r *memberRepo) FindOrCreate(ctx context.Context, email string) (model.Member, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO members (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+memberColumns+`
	`, email)

	m, err := scanMember(row)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Member{}, false, fmt.Errorf("insert member: %w", err)
	}

	m, err = r.GetByEmail(ctx, email)
	if err != nil {
		return model.Member{}, false, fmt.Errorf("select member after conflict: %w", err)
	}
	return m, false, nil
}

// RecordLogin marks a successful login: last_login_at, is_verified.
func (r *memberRepo) RecordLogin(ctx context.Context, id uuid.UUID) (model.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE members
		SET last_login_at = now(), is_verified = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns+`
	`, id)
	return scanMember(row)
}

// UpdateProfile mutates only the supplied fields; nil arguments keep prior values.
func (r *memberRepo) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, bio, avatarURL *string) (model.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE members
		SET display_name = COALESCE($2, display_name),
		    bio          = COALESCE($3, bio),
		    avatar_url   = COALESCE($4, avatar_url),
		    updated_at   = now()
		WHERE id = $1
		RETURNING `+memberColumns+`
	`, id, displayName, bio, avatarURL)
	return scanMember(row)
}
