package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/repository/memory"
)

func otpTestConfig() config.OTPSettings {
	return config.OTPSettings{
		IssueLimit:      3,
		IssueWindow:     15 * time.Minute,
		MaxAttempts:     5,
		RegistrationTTL: 15 * time.Minute,
		ResetTTL:        10 * time.Minute,
		VerifiedMarkTTL: 2 * time.Hour,
	}
}

type otpFixture struct {
	service  *OTPService
	sender   *fakeEmailSender
	verified *fakeVerified
	now      time.Time
	codes    []string
}

func newOTPFixture(t *testing.T) *otpFixture {
	t.Helper()

	f := &otpFixture{
		sender:   &fakeEmailSender{},
		verified: newFakeVerified(),
		now:      time.Now(),
	}

	codes := memory.NewOTPStore(0).WithClock(func() time.Time { return f.now })
	rates := memory.NewRateLimitStore(0)

	f.service = NewOTPService(codes, rates, f.verified, f.sender, otpTestConfig(), zap.NewNop()).
		WithClock(func() time.Time { return f.now })

	// Deterministic code sequence.
	next := 0
	f.codes = []string{"111111", "222222", "333333", "444444"}
	f.service.newCode = func() (string, error) {
		code := f.codes[next%len(f.codes)]
		next++
		return code, nil
	}
	return f
}

func TestOTPService_IssueLimit(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	for i := 0; i < 3; i++ {
		if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
			t.Fatalf("RequestCode() #%d error = %v", i+1, err)
		}
	}

	err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration)
	if !errors.Is(err, ErrOTPRateLimited) {
		t.Fatalf("RequestCode() #4 error = %v, want ErrOTPRateLimited", err)
	}

	var rateErr *RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatal("rate limit error does not carry a retry hint")
	}
	if rateErr.RetryAfter <= 0 || rateErr.RetryAfter > 15*time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 15m]", rateErr.RetryAfter)
	}

	// A different address is unaffected.
	if err := f.service.RequestCode(ctx, "other@example.com", port.OTPPurposeRegistration); err != nil {
		t.Errorf("RequestCode() for other email error = %v", err)
	}
}

func TestOTPService_IssueLimitSlidesWithWindow(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	for i := 0; i < 3; i++ {
		if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
			t.Fatalf("RequestCode() error = %v", err)
		}
	}

	f.now = f.now.Add(16 * time.Minute)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Errorf("RequestCode() after window error = %v", err)
	}
}

func TestOTPService_NewCodeReplacesOld(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}
	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}

	// First code no longer verifies.
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); !errors.Is(err, ErrOTPInvalid) {
		t.Errorf("VerifyCode() with replaced code error = %v, want ErrOTPInvalid", err)
	}
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "222222"); err != nil {
		t.Errorf("VerifyCode() with current code error = %v", err)
	}
}

func TestOTPService_VerifySuccessSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); err != nil {
		t.Fatalf("VerifyCode() error = %v", err)
	}

	// The verified mark is written.
	ok, err := f.verified.IsVerified(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if !ok {
		t.Error("verified mark missing after successful verification")
	}

	// The code is consumed.
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("VerifyCode() replay error = %v, want ErrOTPNotFound", err)
	}

	// The issue quota is cleared: three more requests go through.
	for i := 0; i < 3; i++ {
		if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
			t.Fatalf("RequestCode() after verification error = %v", err)
		}
	}
}

func TestOTPService_AttemptExhaustion(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "000000"); !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("VerifyCode() wrong attempt #%d error = %v, want ErrOTPInvalid", i+1, err)
		}
	}

	// Fifth wrong attempt exhausts the counter and discards the code.
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "000000"); !errors.Is(err, ErrOTPAttemptsExceeded) {
		t.Fatalf("VerifyCode() wrong attempt #5 error = %v, want ErrOTPAttemptsExceeded", err)
	}

	// Even the right code is now dead.
	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("VerifyCode() after exhaustion error = %v, want ErrOTPNotFound", err)
	}
}

func TestOTPService_NeverIssuedCode(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("VerifyCode() without issuance error = %v, want ErrOTPNotFound", err)
	}
}

func TestOTPService_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}

	f.now = f.now.Add(16 * time.Minute)

	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposeRegistration, "111111"); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("VerifyCode() after expiry error = %v, want ErrOTPExpired", err)
	}
}

func TestOTPService_ResetPurposeShorterTTL(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposePasswordReset); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}

	f.now = f.now.Add(11 * time.Minute)

	if err := f.service.VerifyCode(ctx, "user@example.com", port.OTPPurposePasswordReset, "111111"); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("VerifyCode() reset code after 11m error = %v, want ErrOTPExpired", err)
	}
}

func TestOTPService_EmailDeliveryFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)
	f.sender.err = errors.New("smtp down")

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err == nil {
		t.Error("RequestCode() succeeded despite delivery failure")
	}
}

func TestOTPService_EmailContainsCode(t *testing.T) {
	ctx := context.Background()
	f := newOTPFixture(t)

	if err := f.service.RequestCode(ctx, "user@example.com", port.OTPPurposeRegistration); err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}

	sent := f.sender.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sent))
	}
	if sent[0].To != "user@example.com" {
		t.Errorf("email sent to %q", sent[0].To)
	}
	if !strings.Contains(sent[0].PlainText, "111111") {
		t.Error("email body does not contain the code")
	}
}
