package model

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a registered member of the portal. Members are created
// lazily on first successful login-code verification; there is no signup form.
type Member struct {
	ID          uuid.UUID
	Email       string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	IsVerified  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// LoginCode is a single-use 6-digit login code emailed to a member.
// Rows are never deleted; they double as the rate-limiting history.
type LoginCode struct {
	ID           uuid.UUID
	Email        string
	Code         string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	UsedAt       *time.Time
	AttemptCount int
	RequestIP    *string
}

// MemberSession is an opaque bearer session. Expiry is fixed at issuance;
// LastUsedAt is telemetry, not a sliding window.
type MemberSession struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	Token      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	UserAgent  *string
	RequestIP  *string
}

// SubmissionKind distinguishes the two free-text intake surfaces.
type SubmissionKind string

const (
	KindComment SubmissionKind = "comment"
	KindReview  SubmissionKind = "review"
)

// ModerationStatus is the review state of a queue entry.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// ModerationEntry is a free-text submission together with the spam decision
// derived at intake time. The full spam check result is never persisted, only
// the score, verdict and priority tier.
type ModerationEntry struct {
	ID          uuid.UUID
	Kind        SubmissionKind
	Content     string
	AuthorName  *string
	AuthorEmail *string
	Score       int
	IsSpam      bool
	Priority    string
	Status      ModerationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
