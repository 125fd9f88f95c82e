package port

import (
	"context"
	"time"
)

// OTP purposes. A code issued for one purpose cannot verify the other.
const (
	OTPPurposeRegistration  = "registration"
	OTPPurposePasswordReset = "password_reset"
)

// OTPRecord is a stored one-time code. Only the digest of the code is kept.
type OTPRecord struct {
	Email     string
	Purpose   string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
}

// OTPStore keeps at most one active code per (email, purpose). Storing a new
// code replaces the previous one and resets its attempt counter.
type OTPStore interface {
	Store(ctx context.Context, record OTPRecord) error
	Fetch(ctx context.Context, email, purpose string) (OTPRecord, error)
	IncrementAttempts(ctx context.Context, email, purpose string) (int, error)
	Delete(ctx context.Context, email, purpose string) error
}

// RateLimitStore tracks timestamped attempts inside a sliding window,
// bucketed by an opaque key.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, key string, windowStart time.Time) error
	CountAttempts(ctx context.Context, key string) (int, error)
	RecordAttempt(ctx context.Context, key string, at time.Time, ttl time.Duration) error
	OldestAttempt(ctx context.Context, key string) (time.Time, error)
	Clear(ctx context.Context, key string) error
}

// LoginAttemptStore counts failed logins per (email, IP) pair inside a
// lockout window.
type LoginAttemptStore interface {
	RecordFailure(ctx context.Context, email, ip string, at time.Time) (int, error)
	FailureCount(ctx context.Context, email, ip string, windowStart time.Time) (int, error)
	Reset(ctx context.Context, email, ip string) error
}

// VerifiedEmailStore holds the durable mark written after OTP verification
// and consumed at registration.
type VerifiedEmailStore interface {
	Mark(ctx context.Context, email string, at time.Time) error
	IsVerified(ctx context.Context, email string) (bool, error)
	Consume(ctx context.Context, email string) error
}
