package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/logger"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository"
)

// ErrResetTokenInvalid is returned for a missing, wrong or expired reset
// code.
var ErrResetTokenInvalid = errors.New("invalid or expired reset token")

// PasswordResetService runs the forgot password flow. The emailed code's
// hash lives on the account record; the verify endpoint checks it without
// consuming it, and the reset endpoint checks the same code again before
// changing the password.
type PasswordResetService struct {
	users     port.UserRepository
	otp       *OTPService
	validator *security.PasswordValidator
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewPasswordResetService(
	users port.UserRepository,
	otp *OTPService,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	log *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		otp:       otp,
		validator: validator,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset emails a reset code when the account exists and keeps the
// code's hash and expiry on the account record. An unknown address returns
// nil all the same, so the endpoint cannot be used to probe which emails
// are registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
			)
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}

	codeHash, expiresAt, err := s.otp.IssueResetCode(ctx, email)
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, codeHash, expiresAt); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	return nil
}

// VerifyResetCode checks the emailed code against the account record
// without consuming it. The same code is checked again at ResetPassword, so
// a client may verify first and reset after.
func (s *PasswordResetService) VerifyResetCode(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	_, err := s.matchResetCode(ctx, email, code)
	return err
}

// ResetPassword changes the password for the account whose active reset
// code matches. The code is cleared once the new password is stored.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)

	user, err := s.matchResetCode(ctx, email, code)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.users.ClearResetToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear reset code: %w", err)
	}
	if err := s.otp.ClearResetQuota(ctx, email); err != nil {
		return fmt.Errorf("clear reset quota: %w", err)
	}

	s.events.Publish(domain.TopicPasswordChanged, domain.PasswordChangedEvent{
		UserID:     user.ID,
		OccurredAt: s.now(),
	})

	s.logger.Info("password reset completed",
		zap.String("user_id", user.ID),
	)
	return nil
}

// matchResetCode loads the account and compares the submitted code against
// the stored hash. A missing account, no active code, or a mismatch all
// come back as ErrResetTokenInvalid.
func (s *PasswordResetService) matchResetCode(ctx context.Context, email, code string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !user.HasActiveResetToken(s.now()) {
		return nil, ErrResetTokenInvalid
	}
	codeHash := security.HashToken(code)
	if subtle.ConstantTimeCompare([]byte(codeHash), []byte(user.ResetTokenHash)) != 1 {
		return nil, ErrResetTokenInvalid
	}
	return user, nil
}
