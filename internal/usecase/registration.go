package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/logger"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrEmailNotVerified is returned when registration is attempted
	// without a prior OTP verification.
	ErrEmailNotVerified = errors.New("email is not verified")
	// ErrEmailTaken is returned when the address already has an account.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidEmail is returned for a malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidFullName is returned for a rejected display name.
	ErrInvalidFullName = errors.New("invalid full name")
)

// RegistrationService creates accounts for verified emails.
type RegistrationService struct {
	users     port.UserRepository
	verified  port.VerifiedEmailStore
	validator *security.PasswordValidator
	issuer    *security.TokenIssuer
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewRegistrationService(
	users port.UserRepository,
	verified port.VerifiedEmailStore,
	validator *security.PasswordValidator,
	issuer *security.TokenIssuer,
	events port.EventPublisher,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		users:     users,
		verified:  verified,
		validator: validator,
		issuer:    issuer,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

// EmailInUse reports whether an account already exists for the address.
// The send-otp endpoint refuses to issue registration codes for taken
// emails so the code quota is not burned on a doomed registration.
func (s *RegistrationService) EmailInUse(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return false, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("check existing account: %w", err)
	}
	return false, nil
}

// RegisterResult is the created account plus its first session tokens.
type RegisterResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Register creates an account. The email must hold an unexpired verified
// mark, which is consumed on success.
func (s *RegistrationService) Register(ctx context.Context, fullName, email, password string) (*RegisterResult, error) {
	email = normalizeEmail(email)

	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := security.ValidateFullName(fullName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFullName, err)
	}
	if err := s.validator.Validate(password); err != nil {
		return nil, err
	}

	verified, err := s.verified.IsVerified(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check verified mark: %w", err)
	}
	if !verified {
		return nil, ErrEmailNotVerified
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:                  uuid.NewString(),
		FullName:            fullName,
		Email:               email,
		PasswordHash:        hash,
		Role:                domain.RoleUser,
		BookmarkedQuestions: []string{},
		BookmarkedResources: []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.verified.Consume(ctx, email); err != nil {
		// The account exists; a stale mark only shortens the window for a
		// duplicate registration attempt, which the unique index already
		// blocks. Log and move on.
		s.logger.Warn("failed to consume verified mark",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}

	s.events.Publish(domain.TopicUserRegistered, domain.UserRegisteredEvent{
		UserID:     user.ID,
		Email:      email,
		OccurredAt: now,
	})

	access, err := s.issuer.IssueAccessToken(security.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{User: user, AccessToken: access}
	if s.issuer.RefreshEnabled() {
		refresh, err := s.issuer.IssueRefreshToken(user.ID)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = refresh
	}

	s.logger.Info("account created",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(email)),
	)
	return result, nil
}
