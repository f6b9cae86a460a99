package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"catlog/internal/domain"
	"catlog/internal/metrics"
	"catlog/internal/registry"
	"catlog/internal/repository"
)

// VerificationService owns the professional credential trust workflow:
// credential validation against the RCVS register, one-time code issuance
// and confirmation, and the derived trust flag.
type VerificationService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	creds    repository.ProfessionalRepository
	registry registry.ReferenceRegistry
	sessions ValidationSessionStore
	sender   emailSender
	limiter  IssueRateLimiter
	metrics  *metrics.Metrics
}

// emailSender is the slice of email.Sender this service needs.
type emailSender interface {
	SendVerificationCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

var (
	ErrReferenceFormat   = errors.New("reference number must be 7 digits")
	ErrReferenceNotFound = errors.New("reference number not found")
	ErrEmailDomain       = errors.New("email must end with " + rcvsEmailSuffix)
	ErrFutureDate        = errors.New("registration date cannot be in the future")
	ErrNoCredential      = errors.New("no professional credential")
	ErrInvalidCode       = errors.New("invalid code")
	ErrCodeExpired       = errors.New("code expired")
	ErrIssueCooldown     = errors.New("code issuance rate limited")
)

const (
	rcvsEmailSuffix = "@rcvs.org.uk"
	codeLength      = 6
	codeTTL         = time.Hour
)

func NewVerificationService(
	logger *zap.Logger,
	users repository.UserRepository,
	creds repository.ProfessionalRepository,
	reg registry.ReferenceRegistry,
	sessions ValidationSessionStore,
	sender emailSender,
	limiter IssueRateLimiter,
	m *metrics.Metrics,
) *VerificationService {
	if sessions == nil {
		sessions = NewMemoryValidationSessionStore(codeTTL)
	}
	return &VerificationService{
		logger:   logger,
		users:    users,
		creds:    creds,
		registry: reg,
		sessions: sessions,
		sender:   sender,
		limiter:  limiter,
		metrics:  m,
	}
}

// CredentialSubmission carries the fields a user claims during profile
// edit or registration.
type CredentialSubmission struct {
	ReferenceNumber  string
	RCVSEmail        string
	RegistrationDate *time.Time
}

// ValidateCredential checks the submission in fixed order and fails at
// the first violation: reference format, register membership, email
// domain, registration date. Once format and register membership hold,
// the acting user's session is marked pre-validated; the later checks do
// not undo that, matching the order in which the fields gate issuance.
func (s *VerificationService) ValidateCredential(ctx context.Context, userID string, sub CredentialSubmission) error {
	if !isReferenceNumber(sub.ReferenceNumber) {
		return ErrReferenceFormat
	}

	ok, err := s.registry.Lookup(sub.ReferenceNumber)
	if err != nil {
		// Fails closed: an unreadable register blocks every new
		// verification, so it is counted for alerting, but the caller
		// just sees a miss.
		s.metrics.IncRegistryUnavailable()
		if s.logger != nil {
			s.logger.Warn("reference registry lookup failed", zap.Error(err))
		}
		return ErrReferenceNotFound
	}
	if !ok {
		return ErrReferenceNotFound
	}

	if err := s.sessions.SetValidated(ctx, userID); err != nil {
		return err
	}

	if email := strings.TrimSpace(sub.RCVSEmail); email != "" && !strings.HasSuffix(email, rcvsEmailSuffix) {
		return ErrEmailDomain
	}

	if sub.RegistrationDate != nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if sub.RegistrationDate.UTC().Truncate(24 * time.Hour).After(today) {
			return ErrFutureDate
		}
	}

	return nil
}

// IssueCode mints a fresh one-time code for the user's credential record,
// overwriting any earlier unconsumed code, and emails it to the user's
// account address. The code is persisted before the email goes out; a
// delivery failure is logged and counted but does not roll it back.
func (s *VerificationService) IssueCode(ctx context.Context, userID string) error {
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return ErrIssueCooldown
	}

	cred, err := s.creds.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoCredential
		}
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(codeTTL)

	if err := s.creds.SetCode(ctx, cred.UserID, code, expiresAt); err != nil {
		return err
	}
	s.metrics.IncCodesIssued()

	if s.sender == nil {
		return nil
	}
	if err := s.sender.SendVerificationCode(ctx, user.Email, code, expiresAt); err != nil {
		s.metrics.IncEmailFailure()
		if s.logger != nil {
			s.logger.Warn("verification code email failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
	return nil
}

// IssueCodeIfPendingValidation consumes the session's pre-validated flag
// and, when it was set, issues a code. The flag is single use: it is
// cleared whether or not issuance then succeeds.
func (s *VerificationService) IssueCodeIfPendingValidation(ctx context.Context, userID string) (bool, error) {
	validated, err := s.sessions.TakeValidated(ctx, userID)
	if err != nil {
		return false, err
	}
	if !validated {
		return false, nil
	}
	if err := s.IssueCode(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmCode flips the credential to verified when the submitted code
// matches the stored one exactly and its expiry is still in the future.
// The persistence layer serializes concurrent attempts per record.
func (s *VerificationService) ConfirmCode(ctx context.Context, userID, code string) error {
	err := s.creds.ConfirmCode(ctx, userID, code, time.Now().UTC())
	switch {
	case err == nil:
		s.metrics.IncCodesConfirmed()
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		s.metrics.IncConfirmFailure("no_credential")
		return ErrNoCredential
	case errors.Is(err, repository.ErrCodeMismatch):
		s.metrics.IncConfirmFailure("mismatch")
		return ErrInvalidCode
	case errors.Is(err, repository.ErrCodeExpired):
		s.metrics.IncConfirmFailure("expired")
		return ErrCodeExpired
	default:
		return err
	}
}

// IsVerified derives the trust flag for a user: the credential record's
// verified bit when one exists, false otherwise.
func (s *VerificationService) IsVerified(ctx context.Context, userID string) (bool, error) {
	cred, err := s.creds.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return cred.Verified, nil
}

// GetCredential returns the user's credential record for their own
// profile view.
func (s *VerificationService) GetCredential(ctx context.Context, userID string) (*domain.VetProfessional, error) {
	cred, err := s.creds.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// UpsertCredential persists submitted credential fields, creating the
// one-per-user record on first submission. Upserting never touches the
// verified bit or an outstanding code.
func (s *VerificationService) UpsertCredential(ctx context.Context, cred domain.VetProfessional) error {
	return s.creds.Upsert(ctx, cred)
}

// RevokeCredential removes the credential record entirely, the only way
// verified status is ever lost.
func (s *VerificationService) RevokeCredential(ctx context.Context, userID string) error {
	return s.creds.DeleteByUserID(ctx, userID)
}

func isReferenceNumber(s string) bool {
	if len(s) != 7 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// generateCode produces a 6 character lowercase hex token.
func generateCode() (string, error) {
	buf := make([]byte, codeLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
