package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/logger"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrEmailNotRegistered is returned when no account exists for the
	// address. Deliberately distinguishable from a wrong password.
	ErrEmailNotRegistered = errors.New("email is not registered")
	// ErrWrongPassword is returned when the password does not match.
	ErrWrongPassword = errors.New("incorrect password")
	// ErrAccountLocked is returned while the (email, IP) pair is inside
	// its lockout window.
	ErrAccountLocked = errors.New("too many failed login attempts")
	// ErrRefreshInvalid is returned when a presented refresh token fails
	// verification.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrAuthRequired is returned when no usable credential accompanied
	// the request.
	ErrAuthRequired = errors.New("authentication required")
)

// AuthService handles login and token refresh.
type AuthService struct {
	users    port.UserRepository
	attempts port.LoginAttemptStore
	issuer   *security.TokenIssuer
	lockout  config.LockoutSettings
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

func NewAuthService(
	users port.UserRepository,
	attempts port.LoginAttemptStore,
	issuer *security.TokenIssuer,
	lockout config.LockoutSettings,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		attempts: attempts,
		issuer:   issuer,
		lockout:  lockout,
		logger:   log,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// WithSleep overrides the jitter sleep. Test helper.
func (s *AuthService) WithSleep(sleep func(time.Duration)) *AuthService {
	s.sleep = sleep
	return s
}

// LoginResult is a successful session.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// Login authenticates an email and password from a given client IP. Failed
// attempts are counted per (email, IP); once the cap is reached the pair is
// locked for the remainder of the window. Every call sleeps a short random
// delay to flatten timing differences between the failure modes.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = normalizeEmail(email)

	now := s.now()
	windowStart := now.Add(-s.lockout.Window)

	failures, err := s.attempts.FailureCount(ctx, email, ip, windowStart)
	if err != nil {
		return nil, fmt.Errorf("count login failures: %w", err)
	}
	if failures >= s.lockout.MaxFailures {
		s.logger.Warn("login attempt while locked out",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("ip", logger.MaskIP(ip)),
		)
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	// The delay sits after the lookup so hit and miss cost the same.
	s.jitter()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, email, ip)
			return nil, ErrEmailNotRegistered
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := security.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			s.recordFailure(ctx, email, ip)
			return nil, ErrWrongPassword
		}
		// A corrupt stored hash is an internal fault, not bad credentials.
		return nil, err
	}

	if err := s.attempts.Reset(ctx, email, ip); err != nil {
		s.logger.Warn("failed to reset login failure counter", zap.Error(err))
	}

	access, err := s.issuer.IssueAccessToken(security.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}

	result := &LoginResult{User: user, AccessToken: access}
	if s.issuer.RefreshEnabled() {
		refresh, err := s.issuer.IssueRefreshToken(user.ID)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = refresh
	}

	s.logger.Info("login succeeded",
		zap.String("user_id", user.ID),
		zap.String("ip", logger.MaskIP(ip)),
	)
	return result, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip string) {
	count, err := s.attempts.RecordFailure(ctx, email, ip, s.now())
	if err != nil {
		s.logger.Error("failed to record login failure", zap.Error(err))
		return
	}
	if count >= s.lockout.MaxFailures-2 {
		s.logger.Warn("repeated login failures",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("ip", logger.MaskIP(ip)),
			zap.Int("failures", count),
		)
	}
}

// jitter sleeps between 100 and 200 milliseconds.
func (s *AuthService) jitter() {
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		n = big.NewInt(50)
	}
	s.sleep(time.Duration(100+n.Int64()) * time.Millisecond)
}

// Refresh exchanges a credential for a fresh access token. Two branches, in
// order:
//
//  1. A refresh token, when presented and refresh support is configured,
//     must verify on its own. A failure is terminal; the bearer branch is
//     not consulted.
//  2. Otherwise a bearer access token is accepted even when expired, as
//     long as the signature and claims hold. Deployments without a refresh
//     secret land here even when a stale refresh token was sent along.
//
// With neither credential the request is unauthenticated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, bearerToken string) (*LoginResult, error) {
	var userID string

	switch {
	case refreshToken != "" && s.issuer.RefreshEnabled():
		id, err := s.issuer.ParseRefreshToken(refreshToken)
		if err != nil {
			return nil, ErrRefreshInvalid
		}
		userID = id
	case bearerToken != "":
		identity, err := s.issuer.ParseAccessTokenIgnoreExpiry(bearerToken)
		if err != nil {
			return nil, ErrAuthRequired
		}
		userID = identity.UserID
	default:
		return nil, ErrAuthRequired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	access, err := s.issuer.IssueAccessToken(security.Identity{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}

	result := &LoginResult{User: user, AccessToken: access}
	if s.issuer.RefreshEnabled() {
		refresh, err := s.issuer.IssueRefreshToken(user.ID)
		if err != nil {
			return nil, err
		}
		result.RefreshToken = refresh
	}
	return result, nil
}

// Profile loads the account behind a verified identity.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return user, nil
}
