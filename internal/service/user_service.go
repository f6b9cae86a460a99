package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"catlog/internal/domain"
	"catlog/internal/email"
	"catlog/internal/repository"
)

// UserService coordinates account rules: registration, login, profile
// edits and the professional status toggle that drives the verification
// workflow.
type UserService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	social       repository.SocialRepository
	posts        *PostService
	items        *ItemService
	verification *VerificationService
	emailSender  email.Sender
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("passwords must match")
	ErrWeakPassword       = errors.New("password too short")
	ErrSelfFollow         = errors.New("cannot follow yourself")
)

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	social repository.SocialRepository,
	posts *PostService,
	items *ItemService,
	verification *VerificationService,
	emailSender email.Sender,
) *UserService {
	return &UserService{
		logger:       logger,
		users:        users,
		social:       social,
		posts:        posts,
		items:        items,
		verification: verification,
		emailSender:  emailSender,
	}
}

// ProfessionalInput carries the credential fields a user submits when
// claiming professional status.
type ProfessionalInput struct {
	ReferenceNumber  string
	RCVSEmail        string
	RegistrationDate *time.Time
	Location         string
	FieldOfWork      string
}

func (p ProfessionalInput) submission() CredentialSubmission {
	return CredentialSubmission{
		ReferenceNumber:  p.ReferenceNumber,
		RCVSEmail:        p.RCVSEmail,
		RegistrationDate: p.RegistrationDate,
	}
}

// complete reports whether the pair that gates initial code issuance is
// present.
func (p ProfessionalInput) complete() bool {
	return strings.TrimSpace(p.ReferenceNumber) != "" && strings.TrimSpace(p.RCVSEmail) != ""
}

type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	Professional         *ProfessionalInput
}

// Register creates an account, optionally with a professional credential
// when a complete submission accompanies it. A credential created here
// with the full pair gets its first verification code immediately.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	username := strings.TrimSpace(input.Username)
	emailAddr := normalizeEmail(input.Email)
	if username == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if len(input.Password) < 8 {
		return domain.User{}, ErrWeakPassword
	}
	if input.Password != input.PasswordConfirmation {
		return domain.User{}, ErrPasswordMismatch
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.User{}, ErrUsernameTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	professional := input.Professional != nil && input.Professional.complete()

	user := domain.User{
		ID:              uuid.NewString(),
		Username:        username,
		Email:           emailAddr,
		VetProfessional: professional,
		CreatedAt:       time.Now().UTC(),
	}

	// Validate the claimed credential before anything persists, so a bad
	// submission fails the whole registration.
	if professional {
		if err := s.verification.ValidateCredential(ctx, user.ID, input.Professional.submission()); err != nil {
			return domain.User{}, err
		}
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = string(hashBytes)

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	if professional {
		if err := s.upsertCredential(ctx, user.ID, *input.Professional); err != nil {
			return domain.User{}, err
		}
		if err := s.verification.IssueCode(ctx, user.ID); err != nil {
			return domain.User{}, err
		}
	}

	if s.emailSender != nil {
		if err := s.emailSender.SendWelcome(ctx, emailAddr); err != nil && s.logger != nil {
			s.logger.Warn("welcome email failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}

	return user, nil
}

// Authenticate verifies a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetProfile assembles the full user view with nested posts, items,
// saves and follow lists.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrUserNotFound
		}
		return domain.Profile{}, err
	}

	profile := domain.Profile{User: user}

	profile.Professional, err = s.verification.GetCredential(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	if profile.Posts, err = s.posts.ListByAuthor(ctx, userID); err != nil {
		return domain.Profile{}, err
	}
	if profile.Items, err = s.items.ListBySeller(ctx, userID); err != nil {
		return domain.Profile{}, err
	}
	if profile.Saves, err = s.items.ListSavedBy(ctx, userID); err != nil {
		return domain.Profile{}, err
	}
	if profile.Followers, err = s.social.ListFollowers(ctx, userID); err != nil {
		return domain.Profile{}, err
	}
	if profile.Following, err = s.social.ListFollowing(ctx, userID); err != nil {
		return domain.Profile{}, err
	}

	profile.NumPosts = len(profile.Posts)
	profile.NumItems = len(profile.Items)
	profile.NumSaves = len(profile.Saves)
	profile.NumFollowers = len(profile.Followers)
	profile.NumFollowing = len(profile.Following)
	return profile, nil
}

type UpdateProfileInput struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	Bio          *string
	ProfileImage *string
	DateOfBirth  *time.Time

	VetProfessional *bool
	Professional    *ProfessionalInput
}

// UpdateProfile applies a partial profile edit. Toggling professional
// status off deletes the credential record outright; submitting
// credential fields validates them and, when the session's pre-validated
// marker is set, issues a verification code. The returned bool reports
// whether a code went out.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, false, ErrUserNotFound
		}
		return domain.User{}, false, err
	}

	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.ProfileImage != nil {
		user.ProfileImage = *input.ProfileImage
	}
	if input.DateOfBirth != nil {
		user.DateOfBirth = input.DateOfBirth
	}

	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, false, err
	}

	switch {
	case input.VetProfessional != nil && !*input.VetProfessional:
		// Explicit revocation: credential record removed, any state back
		// to none.
		if err := s.verification.RevokeCredential(ctx, userID); err != nil {
			return domain.User{}, false, err
		}
		if err := s.users.SetProfessionalFlag(ctx, userID, false); err != nil {
			return domain.User{}, false, err
		}
		user.VetProfessional = false

	case input.Professional != nil:
		if err := s.verification.ValidateCredential(ctx, userID, input.Professional.submission()); err != nil {
			return domain.User{}, false, err
		}
		if err := s.upsertCredential(ctx, userID, *input.Professional); err != nil {
			return domain.User{}, false, err
		}
		if err := s.users.SetProfessionalFlag(ctx, userID, true); err != nil {
			return domain.User{}, false, err
		}
		user.VetProfessional = true
	}

	codeSent := false
	if cred, err := s.verification.GetCredential(ctx, userID); err != nil {
		return domain.User{}, false, err
	} else if cred != nil {
		codeSent, err = s.verification.IssueCodeIfPendingValidation(ctx, userID)
		if err != nil {
			return domain.User{}, false, err
		}
	}

	return user, codeSent, nil
}

func (s *UserService) upsertCredential(ctx context.Context, userID string, input ProfessionalInput) error {
	cred := domain.VetProfessional{
		ID:               uuid.NewString(),
		UserID:           userID,
		ReferenceNumber:  strings.TrimSpace(input.ReferenceNumber),
		RCVSEmail:        strings.TrimSpace(input.RCVSEmail),
		RegistrationDate: input.RegistrationDate,
		Location:         input.Location,
		FieldOfWork:      input.FieldOfWork,
		CreatedAt:        time.Now().UTC(),
	}
	return s.verification.UpsertCredential(ctx, cred)
}

// ToggleFollow follows the target when no link exists and unfollows
// otherwise, returning the resulting action.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, targetID string) (string, error) {
	if followerID == targetID {
		return "", ErrSelfFollow
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	created, err := s.social.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		return "", err
	}
	if created {
		return "following", nil
	}
	return "unfollowed", nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
