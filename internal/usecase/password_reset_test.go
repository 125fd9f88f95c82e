package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository/memory"
)

type resetFixture struct {
	service *PasswordResetService
	users   *fakeUserRepo
	sender  *fakeEmailSender
	events  *fakeEvents
	now     time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	f := &resetFixture{
		users:  newFakeUserRepo(),
		sender: &fakeEmailSender{},
		events: &fakeEvents{},
		now:    time.Now(),
	}

	codes := memory.NewOTPStore(0).WithClock(func() time.Time { return f.now })
	otp := NewOTPService(
		codes, memory.NewRateLimitStore(0), newFakeVerified(), f.sender, otpTestConfig(), zap.NewNop(),
	).WithClock(func() time.Time { return f.now })
	otp.newCode = func() (string, error) { return "654321", nil }

	f.service = NewPasswordResetService(
		f.users, otp, security.NewPasswordValidator(), f.events, zap.NewNop(),
	).WithClock(func() time.Time { return f.now })
	return f
}

func (f *resetFixture) seedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestPasswordReset_UnknownEmailStaysQuiet(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	if err := f.service.RequestReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("RequestReset() for unknown email error = %v", err)
	}
	if len(f.sender.sent()) != 0 {
		t.Error("an email was sent for an unknown address")
	}
}

func TestPasswordReset_FullFlow(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.seedUser(t, "user@example.com", "Old!Passw0rd")

	if err := f.service.RequestReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestReset() error = %v", err)
	}
	if len(f.sender.sent()) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.sender.sent()))
	}

	// Verification does not consume the code; the same code finishes the
	// flow afterwards.
	if err := f.service.VerifyResetCode(ctx, "user@example.com", "654321"); err != nil {
		t.Fatalf("VerifyResetCode() error = %v", err)
	}
	if err := f.service.VerifyResetCode(ctx, "user@example.com", "654321"); err != nil {
		t.Fatalf("VerifyResetCode() second check error = %v", err)
	}

	if err := f.service.ResetPassword(ctx, "user@example.com", "654321", "Br!ght9Meadow"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	// The new password verifies, the old one does not.
	stored, err := f.users.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if err := security.VerifyPassword("Br!ght9Meadow", stored.PasswordHash); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
	if err := security.VerifyPassword("Old!Passw0rd", stored.PasswordHash); err == nil {
		t.Error("old password still verifies")
	}

	// The code is cleared once the password changes.
	if err := f.service.ResetPassword(ctx, "user@example.com", "654321", "Br!ght9Meadow"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("ResetPassword() replay error = %v, want ErrResetTokenInvalid", err)
	}

	topics := f.events.published()
	if len(topics) != 1 || topics[0] != domain.TopicPasswordChanged {
		t.Errorf("published topics = %v", topics)
	}
}

func TestPasswordReset_WrongCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.seedUser(t, "user@example.com", "Old!Passw0rd")

	if err := f.service.RequestReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestReset() error = %v", err)
	}

	if err := f.service.VerifyResetCode(ctx, "user@example.com", "000000"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("VerifyResetCode() error = %v, want ErrResetTokenInvalid", err)
	}
	if err := f.service.ResetPassword(ctx, "user@example.com", "000000", "Br!ght9Meadow"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("ResetPassword() error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestPasswordReset_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.seedUser(t, "user@example.com", "Old!Passw0rd")

	if err := f.service.RequestReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestReset() error = %v", err)
	}
	if err := f.service.VerifyResetCode(ctx, "user@example.com", "654321"); err != nil {
		t.Fatalf("VerifyResetCode() error = %v", err)
	}

	f.now = f.now.Add(11 * time.Minute)

	if err := f.service.ResetPassword(ctx, "user@example.com", "654321", "Br!ght9Meadow"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("ResetPassword() after expiry error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestPasswordReset_WeakNewPasswordRejected(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.seedUser(t, "user@example.com", "Old!Passw0rd")

	if err := f.service.RequestReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestReset() error = %v", err)
	}

	if err := f.service.ResetPassword(ctx, "user@example.com", "654321", "weak"); !errors.Is(err, security.ErrWeakPassword) {
		t.Errorf("ResetPassword() error = %v, want ErrWeakPassword", err)
	}

	// The code survives a validation failure.
	if err := f.service.ResetPassword(ctx, "user@example.com", "654321", "Br!ght9Meadow"); err != nil {
		t.Errorf("ResetPassword() with valid password error = %v", err)
	}
}
