package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"catlog/internal/domain"
	"catlog/internal/repository"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SetProfessionalFlag(_ context.Context, id string, professional bool) error {
	user, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.VetProfessional = professional
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) GetSummary(_ context.Context, id string) (domain.UserSummary, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.UserSummary{}, pgx.ErrNoRows
	}
	return domain.UserSummary{ID: user.ID, Username: user.Username, ProfileImage: user.ProfileImage}, nil
}

// mockCredRepo mirrors the postgres confirmation semantics in memory:
// exact code match first, then expiry, success clears the pair.
type mockCredRepo struct {
	creds map[string]domain.VetProfessional
}

func newMockCredRepo() *mockCredRepo {
	return &mockCredRepo{creds: make(map[string]domain.VetProfessional)}
}

func (m *mockCredRepo) Upsert(_ context.Context, p domain.VetProfessional) error {
	if existing, ok := m.creds[p.UserID]; ok {
		existing.ReferenceNumber = p.ReferenceNumber
		existing.RCVSEmail = p.RCVSEmail
		existing.RegistrationDate = p.RegistrationDate
		existing.Location = p.Location
		existing.FieldOfWork = p.FieldOfWork
		m.creds[p.UserID] = existing
		return nil
	}
	m.creds[p.UserID] = p
	return nil
}

func (m *mockCredRepo) GetByUserID(_ context.Context, userID string) (domain.VetProfessional, error) {
	cred, ok := m.creds[userID]
	if !ok {
		return domain.VetProfessional{}, pgx.ErrNoRows
	}
	return cred, nil
}

func (m *mockCredRepo) DeleteByUserID(_ context.Context, userID string) error {
	delete(m.creds, userID)
	return nil
}

func (m *mockCredRepo) SetCode(_ context.Context, userID, code string, expiresAt time.Time) error {
	cred, ok := m.creds[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	cred.VerificationCode = code
	cred.VerificationCodeExpires = &expiresAt
	m.creds[userID] = cred
	return nil
}

func (m *mockCredRepo) ConfirmCode(_ context.Context, userID, code string, now time.Time) error {
	cred, ok := m.creds[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	if cred.VerificationCode == "" || cred.VerificationCode != code {
		return repository.ErrCodeMismatch
	}
	if cred.VerificationCodeExpires == nil || !cred.VerificationCodeExpires.After(now) {
		return repository.ErrCodeExpired
	}
	cred.Verified = true
	cred.VerificationCode = ""
	cred.VerificationCodeExpires = nil
	m.creds[userID] = cred
	return nil
}

type stubRegistry struct {
	refs    map[string]bool
	err     error
	lookups int
}

func (s *stubRegistry) Lookup(referenceNumber string) (bool, error) {
	s.lookups++
	if s.err != nil {
		return false, s.err
	}
	return s.refs[referenceNumber], nil
}

type sentEmail struct {
	to   string
	code string
}

type mockEmailSender struct {
	sent []sentEmail
	err  error
}

func (m *mockEmailSender) SendVerificationCode(_ context.Context, toEmail, code string, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: toEmail, code: code})
	return nil
}

type stubLimiter struct {
	allow bool
}

func (s *stubLimiter) Allow(string) bool { return s.allow }

type verifFixture struct {
	svc      *VerificationService
	users    *mockUserRepo
	creds    *mockCredRepo
	registry *stubRegistry
	sender   *mockEmailSender
	sessions ValidationSessionStore
}

func newVerifFixture() *verifFixture {
	users := newMockUserRepo()
	creds := newMockCredRepo()
	reg := &stubRegistry{refs: map[string]bool{"1234567": true}}
	sender := &mockEmailSender{}
	sessions := NewMemoryValidationSessionStore(time.Hour)
	svc := NewVerificationService(zap.NewNop(), users, creds, reg, sessions, sender, nil, nil)
	return &verifFixture{svc: svc, users: users, creds: creds, registry: reg, sender: sender, sessions: sessions}
}

func (f *verifFixture) seedUser(t *testing.T, id string) domain.User {
	t.Helper()
	user := domain.User{ID: id, Username: "vet_" + id, Email: id + "@example.com"}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *verifFixture) seedCredential(t *testing.T, userID string) {
	t.Helper()
	err := f.creds.Upsert(context.Background(), domain.VetProfessional{
		ID:              "cred-" + userID,
		UserID:          userID,
		ReferenceNumber: "1234567",
		RCVSEmail:       "vet@rcvs.org.uk",
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
}

func TestValidateCredentialFormatCheckedBeforeRegistry(t *testing.T) {
	f := newVerifFixture()
	ctx := context.Background()

	for _, ref := range []string{"", "123456", "12345678", "123456a", " 123456", "12e4567"} {
		err := f.svc.ValidateCredential(ctx, "u1", CredentialSubmission{ReferenceNumber: ref})
		if !errors.Is(err, ErrReferenceFormat) {
			t.Fatalf("ref %q: expected ErrReferenceFormat, got %v", ref, err)
		}
	}
	if f.registry.lookups != 0 {
		t.Fatalf("registry consulted %d times for malformed references", f.registry.lookups)
	}
}

func TestValidateCredentialUnknownReference(t *testing.T) {
	f := newVerifFixture()
	ctx := context.Background()

	err := f.svc.ValidateCredential(ctx, "u1", CredentialSubmission{ReferenceNumber: "7654321"})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}

	validated, err := f.sessions.TakeValidated(ctx, "u1")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if validated {
		t.Fatal("session marked validated after a register miss")
	}
}

func TestValidateCredentialRegistryUnavailableFailsClosed(t *testing.T) {
	f := newVerifFixture()
	f.registry.err = errors.New("snapshot unreadable")

	err := f.svc.ValidateCredential(context.Background(), "u1", CredentialSubmission{ReferenceNumber: "1234567"})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestValidateCredentialEmailDomain(t *testing.T) {
	f := newVerifFixture()
	ctx := context.Background()

	err := f.svc.ValidateCredential(ctx, "u1", CredentialSubmission{
		ReferenceNumber: "1234567",
		RCVSEmail:       "vet@gmail.com",
	})
	if !errors.Is(err, ErrEmailDomain) {
		t.Fatalf("expected ErrEmailDomain, got %v", err)
	}

	// The reference itself passed, so the session flag survives the
	// later email failure.
	validated, err := f.sessions.TakeValidated(ctx, "u1")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if !validated {
		t.Fatal("session not marked validated after the reference passed")
	}
}

func TestValidateCredentialFutureRegistrationDate(t *testing.T) {
	f := newVerifFixture()
	future := time.Now().UTC().Add(48 * time.Hour)

	err := f.svc.ValidateCredential(context.Background(), "u1", CredentialSubmission{
		ReferenceNumber:  "1234567",
		RCVSEmail:        "vet@rcvs.org.uk",
		RegistrationDate: &future,
	})
	if !errors.Is(err, ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}
}

func TestValidateCredentialAccepts(t *testing.T) {
	f := newVerifFixture()
	past := time.Now().UTC().Add(-24 * time.Hour)

	err := f.svc.ValidateCredential(context.Background(), "u1", CredentialSubmission{
		ReferenceNumber:  "1234567",
		RCVSEmail:        "vet@rcvs.org.uk",
		RegistrationDate: &past,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestIssueCodeWithoutCredential(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")

	err := f.svc.IssueCode(context.Background(), "u1")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestIssueCodeStoresAndEmails(t *testing.T) {
	f := newVerifFixture()
	user := f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code: %v", err)
	}

	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if !cred.HasCode() {
		t.Fatal("no code stored after issuance")
	}
	if len(cred.VerificationCode) != 6 {
		t.Fatalf("code %q is not 6 characters", cred.VerificationCode)
	}
	if cred.VerificationCode != strings.ToLower(cred.VerificationCode) {
		t.Fatalf("code %q is not lowercase", cred.VerificationCode)
	}
	if strings.Trim(cred.VerificationCode, "0123456789abcdef") != "" {
		t.Fatalf("code %q is not hex", cred.VerificationCode)
	}
	remaining := time.Until(*cred.VerificationCodeExpires)
	if remaining < 59*time.Minute || remaining > time.Hour {
		t.Fatalf("expiry %v away, want about one hour", remaining)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.sender.sent))
	}
	if f.sender.sent[0].to != user.Email {
		t.Fatalf("email sent to %q, want account address %q", f.sender.sent[0].to, user.Email)
	}
	if f.sender.sent[0].code != cred.VerificationCode {
		t.Fatal("emailed code differs from stored code")
	}
}

func TestIssueCodeEmailFailureKeepsCode(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	f.sender.err = errors.New("smtp down")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code should tolerate delivery failure, got %v", err)
	}

	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if !cred.HasCode() {
		t.Fatal("code rolled back after email failure")
	}
}

func TestIssueCodeRateLimited(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	f.svc.limiter = &stubLimiter{allow: false}
	ctx := context.Background()

	err := f.svc.IssueCode(ctx, "u1")
	if !errors.Is(err, ErrIssueCooldown) {
		t.Fatalf("expected ErrIssueCooldown, got %v", err)
	}
	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if cred.HasCode() {
		t.Fatal("code stored despite rate limit")
	}
}

func TestReissueInvalidatesPriorCode(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	first := f.sender.sent[0].code

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("second issue: %v", err)
	}
	second := f.sender.sent[1].code
	if first == second {
		t.Fatal("reissue produced the same code")
	}

	if err := f.svc.ConfirmCode(ctx, "u1", first); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("stale code: expected ErrInvalidCode, got %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, "u1", second); err != nil {
		t.Fatalf("fresh code: %v", err)
	}
}

func TestConfirmCodeSuccessClearsCode(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code: %v", err)
	}
	code := f.sender.sent[0].code

	if err := f.svc.ConfirmCode(ctx, "u1", code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if !cred.Verified {
		t.Fatal("credential not verified after confirmation")
	}
	if cred.HasCode() {
		t.Fatal("consumed code not cleared")
	}

	// The consumed code cannot be replayed.
	if err := f.svc.ConfirmCode(ctx, "u1", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("replay: expected ErrInvalidCode, got %v", err)
	}
}

func TestConfirmCodeMismatch(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code: %v", err)
	}
	code := f.sender.sent[0].code

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	if err := f.svc.ConfirmCode(ctx, "u1", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	// Case matters: an uppercased copy of the right code is a mismatch.
	upper := strings.ToUpper(code)
	if upper != code {
		if err := f.svc.ConfirmCode(ctx, "u1", upper); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("uppercased code: expected ErrInvalidCode, got %v", err)
		}
	}

	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if cred.Verified {
		t.Fatal("credential verified despite mismatches")
	}
	if !cred.HasCode() {
		t.Fatal("stored code cleared by a failed attempt")
	}
}

func TestConfirmCodeExpired(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Minute)
	if err := f.creds.SetCode(ctx, "u1", "abc123", expired); err != nil {
		t.Fatalf("set code: %v", err)
	}

	if err := f.svc.ConfirmCode(ctx, "u1", "abc123"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}

	cred, err := f.creds.GetByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if cred.Verified {
		t.Fatal("credential verified with an expired code")
	}
}

func TestConfirmCodeWithoutCredential(t *testing.T) {
	f := newVerifFixture()

	err := f.svc.ConfirmCode(context.Background(), "ghost", "abc123")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestConfirmCodeEmptySubmissionNeverMatches(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")

	// No code outstanding: an empty submission must not equal the empty
	// stored value.
	err := f.svc.ConfirmCode(context.Background(), "u1", "")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestIsVerified(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	ctx := context.Background()

	verified, err := f.svc.IsVerified(ctx, "u1")
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if verified {
		t.Fatal("verified without a credential record")
	}

	f.seedCredential(t, "u1")
	verified, err = f.svc.IsVerified(ctx, "u1")
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if verified {
		t.Fatal("verified before confirmation")
	}

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code: %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, "u1", f.sender.sent[0].code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	for i := 0; i < 2; i++ {
		verified, err = f.svc.IsVerified(ctx, "u1")
		if err != nil {
			t.Fatalf("is verified: %v", err)
		}
		if !verified {
			t.Fatal("not verified after confirmation")
		}
	}
}

func TestRevokeCredentialClearsVerified(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	if err := f.svc.IssueCode(ctx, "u1"); err != nil {
		t.Fatalf("issue code: %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, "u1", f.sender.sent[0].code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := f.svc.RevokeCredential(ctx, "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	verified, err := f.svc.IsVerified(ctx, "u1")
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if verified {
		t.Fatal("still verified after revocation")
	}
}

func TestIssueCodeIfPendingValidation(t *testing.T) {
	f := newVerifFixture()
	f.seedUser(t, "u1")
	f.seedCredential(t, "u1")
	ctx := context.Background()

	sent, err := f.svc.IssueCodeIfPendingValidation(ctx, "u1")
	if err != nil {
		t.Fatalf("issue pending: %v", err)
	}
	if sent {
		t.Fatal("code issued without a pre-validated session")
	}

	if err := f.svc.ValidateCredential(ctx, "u1", CredentialSubmission{ReferenceNumber: "1234567"}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sent, err = f.svc.IssueCodeIfPendingValidation(ctx, "u1")
	if err != nil {
		t.Fatalf("issue pending: %v", err)
	}
	if !sent {
		t.Fatal("code not issued despite a pre-validated session")
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.sender.sent))
	}

	// The flag is single use.
	sent, err = f.svc.IssueCodeIfPendingValidation(ctx, "u1")
	if err != nil {
		t.Fatalf("issue pending: %v", err)
	}
	if sent {
		t.Fatal("pre-validated flag reused")
	}
}

func TestVerificationEndToEnd(t *testing.T) {
	f := newVerifFixture()
	user := f.seedUser(t, "u1")
	past := time.Now().UTC().Add(-365 * 24 * time.Hour)
	ctx := context.Background()

	sub := CredentialSubmission{
		ReferenceNumber:  "1234567",
		RCVSEmail:        "vet@rcvs.org.uk",
		RegistrationDate: &past,
	}
	if err := f.svc.ValidateCredential(ctx, user.ID, sub); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := f.svc.UpsertCredential(ctx, domain.VetProfessional{
		ID:               "cred-1",
		UserID:           user.ID,
		ReferenceNumber:  sub.ReferenceNumber,
		RCVSEmail:        sub.RCVSEmail,
		RegistrationDate: sub.RegistrationDate,
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sent, err := f.svc.IssueCodeIfPendingValidation(ctx, user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !sent {
		t.Fatal("expected a code after validation")
	}

	if err := f.svc.ConfirmCode(ctx, user.ID, f.sender.sent[0].code); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	verified, err := f.svc.IsVerified(ctx, user.ID)
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if !verified {
		t.Fatal("end to end flow did not verify the credential")
	}
}
