package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/mailer"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/model"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/repo"
)

const (
	rateLimitWindow   = time.Hour
	maxCodesPerWindow = 3

	defaultCodeTTL    = 10 * time.Minute
	defaultSessionTTL = 30 * 24 * time.Hour
)

// RequestResult is the outcome of a login-code request.
type RequestResult struct {
	OK   bool
	Kind FailureKind
}

// VerifyResult is the outcome of a code verification. NewMember reports a
// first-time signup via magic link, as opposed to a returning login.
type VerifyResult struct {
	OK        bool
	Kind      FailureKind
	Token     string
	Member    model.Member
	NewMember bool
}

// Service issues and verifies single-use login codes and manages the session
// token lifecycle. All operations degrade to an Unavailable result or nil when
// the store cannot be reached; they never panic and never surface store
// errors to callers.
type Service struct {
	codes    repo.LoginCodeRepo
	members  repo.MemberRepo
	sessions repo.SessionRepo
	mail     mailer.Mailer
	logger   *zap.Logger

	codeTTL    time.Duration
	sessionTTL time.Duration
}

// NewService creates a new magic-link auth service
func NewService(codes repo.LoginCodeRepo, members repo.MemberRepo, sessions repo.SessionRepo, mail mailer.Mailer, logger *zap.Logger) *Service {
	return &Service{
		codes:      codes,
		members:    members,
		sessions:   sessions,
		mail:       mail,
		logger:     logger,
		codeTTL:    defaultCodeTTL,
		sessionTTL: defaultSessionTTL,
	}
}

// WithTTLs overrides the code and session lifetimes. Zero values keep defaults.
func (s *Service) WithTTLs(codeTTL, sessionTTL time.Duration) *Service {
	if codeTTL > 0 {
		s.codeTTL = codeTTL
	}
	if sessionTTL > 0 {
		s.sessionTTL = sessionTTL
	}
	return s
}

// NormalizeEmail trims and lowercases an address. Applied before every lookup
// and every write, so the same mailbox always maps to the same rows.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestLoginCode issues a new single-use code for the address and mails it.
// At most 3 codes per address per rolling 60-minute window; the window check
// and the insert run atomically in the store. A failed mail send does not
// invalidate the stored code.
func (s *Service) RequestLoginCode(ctx context.Context, email, ipAddress string) RequestResult {
	email = NormalizeEmail(email)

	code, err := GenerateLoginCode()
	if err != nil {
		s.logger.Error("generate login code", zap.Error(err))
		return RequestResult{Kind: KindUnavailable}
	}

	var requestIP *string
	if ipAddress != "" {
		requestIP = &ipAddress
	}

	since := time.Now().Add(-rateLimitWindow)
	expiresAt := time.Now().Add(s.codeTTL)
	_, err = s.codes.CreateWithinLimit(ctx, email, code, expiresAt, requestIP, since, maxCodesPerWindow)
	if err != nil {
		if errors.Is(err, repo.ErrRateLimited) {
			return RequestResult{Kind: KindRateLimited}
		}
		s.logger.Error("create login code", zap.Error(err))
		return RequestResult{Kind: KindUnavailable}
	}

	// Send failure is logged and swallowed: the code stays valid, the user
	// retries and consumes one of their rate-limited slots.
	if err := s.mail.SendLoginCode(ctx, email, code); err != nil {
		s.logger.Error("send login code mail", zap.String("email", email), zap.Error(err))
	}

	return RequestResult{OK: true}
}

// VerifyLoginCode checks a submitted code, creates or updates the member and
// issues a session token on success. On a miss a second diagnostic lookup
// (ignoring used/expiry status) produces a precise failure kind and counts
// the attempt; a code that never existed yields the generic invalid kind.
func (s *Service) VerifyLoginCode(ctx context.Context, email, code, ipAddress, userAgent string) VerifyResult {
	email = NormalizeEmail(email)

	match, err := s.codes.FindActive(ctx, email, code)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Error("lookup login code", zap.Error(err))
			return VerifyResult{Kind: KindUnavailable}
		}
		return s.diagnoseFailure(ctx, email, code)
	}

	if err := s.codes.MarkUsed(ctx, match.ID); err != nil {
		s.logger.Error("mark code used", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	member, created, err := s.members.FindOrCreate(ctx, email)
	if err != nil {
		s.logger.Error("find or create member", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	member, err = s.members.RecordLogin(ctx, member.ID)
	if err != nil {
		s.logger.Error("record login", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	token, err := GenerateSessionToken()
	if err != nil {
		s.logger.Error("generate session token", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	var ua, ip *string
	if userAgent != "" {
		ua = &userAgent
	}
	if ipAddress != "" {
		ip = &ipAddress
	}

	_, err = s.sessions.Create(ctx, member.ID, token, time.Now().Add(s.sessionTTL), ua, ip)
	if err != nil {
		s.logger.Error("create session", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	return VerifyResult{OK: true, Token: token, Member: member, NewMember: created}
}

// diagnoseFailure runs the second lookup ignoring used/expiry status so the
// user gets an actionable reason. The attempt is counted on that row even
// though the verification failed. No lockout threshold is enforced.
func (s *Service) diagnoseFailure(ctx context.Context, email, code string) VerifyResult {
	row, err := s.codes.FindAny(ctx, email, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// No row at all: stay generic, don't confirm whether a code
			// was ever issued for this address.
			return VerifyResult{Kind: KindInvalidCode}
		}
		s.logger.Error("diagnostic code lookup", zap.Error(err))
		return VerifyResult{Kind: KindUnavailable}
	}

	if _, err := s.codes.IncrementAttempt(ctx, row.ID); err != nil {
		s.logger.Error("increment attempt", zap.Error(err))
	}

	if row.UsedAt != nil {
		return VerifyResult{Kind: KindAlreadyUsed}
	}
	if time.Now().After(row.ExpiresAt) {
		return VerifyResult{Kind: KindExpired}
	}
	return VerifyResult{Kind: KindInvalidCode}
}

// ValidateSession resolves a session token to its member. Returns nil for an
// unknown or expired token, a missing member, or a deactivated member; the
// active-member check runs at validation time, so deactivation takes effect
// on the next request. A hit updates last_used_at (telemetry, best-effort).
func (s *Service) ValidateSession(ctx context.Context, token string) *model.Member {
	if token == "" {
		return nil
	}

	session, err := s.sessions.FindActiveByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Error("lookup session", zap.Error(err))
		}
		return nil
	}

	if err := s.sessions.TouchLastUsed(ctx, session.ID); err != nil {
		s.logger.Warn("touch session", zap.Error(err))
	}

	member, err := s.members.GetByID(ctx, session.MemberID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Error("load session member", zap.Error(err))
		}
		return nil
	}
	if !member.IsActive {
		return nil
	}
	return &member
}

// Logout deletes the session for the token. Idempotent: unknown tokens and
// repeated calls are no-ops.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		s.logger.Error("delete session", zap.Error(err))
	}
}

// ProfileUpdate carries the optional profile fields; nil fields keep their
// prior values.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// UpdateMemberProfile applies a partial profile update. Returns nil when the
// member no longer exists or the store is unreachable.
func (s *Service) UpdateMemberProfile(ctx context.Context, memberID uuid.UUID, update ProfileUpdate) *model.Member {
	member, err := s.members.UpdateProfile(ctx, memberID, update.DisplayName, update.Bio, update.AvatarURL)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Error("update member profile", zap.Error(err))
		}
		return nil
	}
	return &member
}

// GetMemberByID loads a member, nil when absent or the store is unreachable.
func (s *Service) GetMemberByID(ctx context.Context, memberID uuid.UUID) *model.Member {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Error("load member", zap.Error(err))
		}
		return nil
	}
	return &member
}
