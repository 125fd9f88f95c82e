package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/logger"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrOTPRateLimited is returned when the email exceeded its issue quota.
	ErrOTPRateLimited = errors.New("too many codes requested")
	// ErrOTPInvalid is returned for a wrong code.
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrOTPNotFound is returned when no code was ever issued for the email.
	ErrOTPNotFound = errors.New("verification code not found")
	// ErrOTPExpired is returned when the issued code's TTL has lapsed.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrOTPAttemptsExceeded is returned once the attempt cap is reached.
	ErrOTPAttemptsExceeded = errors.New("too many verification attempts")
)

// RateLimitedError carries the retry hint for an ErrOTPRateLimited failure.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many codes requested, retry in %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrOTPRateLimited }

const otpCodeDigits = 6

// OTPService issues and verifies email one-time codes for registration and
// password reset.
type OTPService struct {
	codes    port.OTPStore
	rates    port.RateLimitStore
	verified port.VerifiedEmailStore
	sender   port.EmailSender
	cfg      config.OTPSettings
	logger   *zap.Logger
	now      func() time.Time
	newCode  func() (string, error)
}

func NewOTPService(
	codes port.OTPStore,
	rates port.RateLimitStore,
	verified port.VerifiedEmailStore,
	sender port.EmailSender,
	cfg config.OTPSettings,
	log *zap.Logger,
) *OTPService {
	return &OTPService{
		codes:    codes,
		rates:    rates,
		verified: verified,
		sender:   sender,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		newCode:  func() (string, error) { return security.GenerateNumericCode(otpCodeDigits) },
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

func rateKey(email, purpose string) string {
	return "otp:" + purpose + ":" + normalizeEmail(email)
}

// RequestCode issues a fresh code for (email, purpose) and emails it.
// Issuing is capped per email inside a sliding window; a new code always
// replaces the previous one.
func (s *OTPService) RequestCode(ctx context.Context, email, purpose string) error {
	email = normalizeEmail(email)
	now := s.now()

	if err := s.checkIssueQuota(ctx, email, purpose, now); err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}

	ttl := s.ttlFor(purpose)
	record := port.OTPRecord{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  security.HashToken(code),
		ExpiresAt: now.Add(ttl),
	}
	if err := s.codes.Store(ctx, record); err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}

	if err := s.rates.RecordAttempt(ctx, rateKey(email, purpose), now, s.cfg.IssueWindow); err != nil {
		return fmt.Errorf("record otp issue: %w", err)
	}

	if err := s.sender.Send(ctx, otpEmail(email, purpose, code, ttl)); err != nil {
		// The code is already stored; surface the delivery failure so the
		// caller can tell the user nothing was sent.
		return fmt.Errorf("send otp email: %w", err)
	}

	s.logger.Info("otp issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("purpose", purpose),
	)
	return nil
}

// IssueResetCode applies the same issue quota and email delivery as
// RequestCode, but hands the code's hash and expiry back to the caller
// instead of writing the code store. The reset flow keeps the hash on the
// account record and checks the same code at every step.
func (s *OTPService) IssueResetCode(ctx context.Context, email string) (string, time.Time, error) {
	email = normalizeEmail(email)
	now := s.now()
	purpose := port.OTPPurposePasswordReset

	if err := s.checkIssueQuota(ctx, email, purpose, now); err != nil {
		return "", time.Time{}, err
	}

	code, err := s.newCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset code: %w", err)
	}
	expiresAt := now.Add(s.cfg.ResetTTL)

	if err := s.rates.RecordAttempt(ctx, rateKey(email, purpose), now, s.cfg.IssueWindow); err != nil {
		return "", time.Time{}, fmt.Errorf("record otp issue: %w", err)
	}
	if err := s.sender.Send(ctx, otpEmail(email, purpose, code, s.cfg.ResetTTL)); err != nil {
		return "", time.Time{}, fmt.Errorf("send otp email: %w", err)
	}

	s.logger.Info("otp issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("purpose", purpose),
	)
	return security.HashToken(code), expiresAt, nil
}

// ClearResetQuota drops the reset issue counter once a reset completes.
func (s *OTPService) ClearResetQuota(ctx context.Context, email string) error {
	return s.rates.Clear(ctx, rateKey(normalizeEmail(email), port.OTPPurposePasswordReset))
}

// checkIssueQuota enforces the per-email issue cap inside the sliding
// window, returning a RateLimitedError with the retry hint once exceeded.
func (s *OTPService) checkIssueQuota(ctx context.Context, email, purpose string, now time.Time) error {
	key := rateKey(email, purpose)

	if err := s.rates.TrimWindow(ctx, key, now.Add(-s.cfg.IssueWindow)); err != nil {
		return fmt.Errorf("trim otp rate window: %w", err)
	}
	count, err := s.rates.CountAttempts(ctx, key)
	if err != nil {
		return fmt.Errorf("count otp issues: %w", err)
	}
	if count < s.cfg.IssueLimit {
		return nil
	}

	oldest, err := s.rates.OldestAttempt(ctx, key)
	if err != nil {
		return fmt.Errorf("read oldest otp issue: %w", err)
	}
	retryAfter := s.cfg.IssueWindow
	if !oldest.IsZero() {
		retryAfter = oldest.Add(s.cfg.IssueWindow).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
	}
	s.logger.Warn("otp issue limit reached",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("purpose", purpose),
	)
	return &RateLimitedError{RetryAfter: retryAfter}
}

// VerifyCode checks a submitted code. Success consumes the code, clears the
// issue quota and, for registration, writes the verified email mark.
func (s *OTPService) VerifyCode(ctx context.Context, email, purpose, code string) error {
	email = normalizeEmail(email)

	record, err := s.codes.Fetch(ctx, email, purpose)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrOTPNotFound
		case errors.Is(err, repository.ErrExpired):
			return ErrOTPExpired
		}
		return fmt.Errorf("fetch otp code: %w", err)
	}

	if record.Attempts >= s.cfg.MaxAttempts {
		return ErrOTPAttemptsExceeded
	}

	if security.HashToken(code) != record.CodeHash {
		attempts, err := s.codes.IncrementAttempts(ctx, email, purpose)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("record failed otp attempt: %w", err)
		}
		if attempts >= s.cfg.MaxAttempts {
			if err := s.codes.Delete(ctx, email, purpose); err != nil {
				return fmt.Errorf("discard exhausted otp code: %w", err)
			}
			return ErrOTPAttemptsExceeded
		}
		return ErrOTPInvalid
	}

	if err := s.codes.Delete(ctx, email, purpose); err != nil {
		return fmt.Errorf("consume otp code: %w", err)
	}
	if err := s.rates.Clear(ctx, rateKey(email, purpose)); err != nil {
		return fmt.Errorf("clear otp issue quota: %w", err)
	}

	if purpose == port.OTPPurposeRegistration {
		if err := s.verified.Mark(ctx, email, s.now()); err != nil {
			return fmt.Errorf("mark email verified: %w", err)
		}
	}

	s.logger.Info("otp verified",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("purpose", purpose),
	)
	return nil
}

func (s *OTPService) ttlFor(purpose string) time.Duration {
	if purpose == port.OTPPurposePasswordReset {
		return s.cfg.ResetTTL
	}
	return s.cfg.RegistrationTTL
}

func otpEmail(to, purpose, code string, ttl time.Duration) port.EmailMessage {
	subject := "Your verification code"
	intro := "Use this code to verify your email address."
	if purpose == port.OTPPurposePasswordReset {
		subject = "Your password reset code"
		intro = "Use this code to reset your password."
	}

	minutes := int(ttl.Minutes())
	plain := fmt.Sprintf("%s\n\nCode: %s\n\nIt expires in %d minutes.", intro, code, minutes)
	html := fmt.Sprintf(
		"<p>%s</p><p style=\"font-size:24px;letter-spacing:4px\"><strong>%s</strong></p><p>It expires in %d minutes.</p>",
		intro, code, minutes,
	)

	return port.EmailMessage{To: to, Subject: subject, PlainText: plain, HTML: html}
}
