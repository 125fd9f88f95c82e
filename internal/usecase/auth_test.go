package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/repository/memory"
)

type authFixture struct {
	service *AuthService
	users   *fakeUserRepo
	issuer  *security.TokenIssuer
	now     time.Time
	slept   []time.Duration
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:  newFakeUserRepo(),
		issuer: security.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour),
		now:    time.Now(),
	}

	lockout := config.LockoutSettings{MaxFailures: 5, Window: 15 * time.Minute}
	f.service = NewAuthService(f.users, memory.NewLoginAttemptStore(lockout.Window, 0), f.issuer, lockout, zap.NewNop()).
		WithClock(func() time.Time { return f.now }).
		WithSleep(func(d time.Duration) { f.slept = append(f.slept, d) })
	return f
}

func (f *authFixture) addUser(t *testing.T, email, password string) *domain.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAuthService_LoginSuccess(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.addUser(t, "user@example.com", "Corr3ct!Horse")

	result, err := f.service.Login(ctx, "User@Example.com", "Corr3ct!Horse", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.AccessToken == "" {
		t.Error("Login() returned no access token")
	}
	if result.RefreshToken == "" {
		t.Error("Login() returned no refresh token with refresh configured")
	}

	if len(f.slept) != 1 {
		t.Fatalf("login slept %d times, want 1", len(f.slept))
	}
	if f.slept[0] < 100*time.Millisecond || f.slept[0] >= 200*time.Millisecond {
		t.Errorf("login jitter = %v, want [100ms, 200ms)", f.slept[0])
	}
}

func TestAuthService_UnknownEmailDistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.service.Login(ctx, "nobody@example.com", "whatever", "10.0.0.1")
	if !errors.Is(err, ErrEmailNotRegistered) {
		t.Errorf("Login() error = %v, want ErrEmailNotRegistered", err)
	}

	// The damping delay runs for a miss just like for a hit.
	if len(f.slept) != 1 {
		t.Errorf("recorded %d delays, want 1", len(f.slept))
	}
}

func TestAuthService_LockoutAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.addUser(t, "user@example.com", "Corr3ct!Horse")

	for i := 0; i < 5; i++ {
		if _, err := f.service.Login(ctx, "user@example.com", "wrong", "10.0.0.1"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("Login() failure #%d error = %v, want ErrWrongPassword", i+1, err)
		}
	}

	// Even the right password is refused while locked.
	if _, err := f.service.Login(ctx, "user@example.com", "Corr3ct!Horse", "10.0.0.1"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("Login() while locked error = %v, want ErrAccountLocked", err)
	}

	// A different IP is not locked.
	if _, err := f.service.Login(ctx, "user@example.com", "Corr3ct!Horse", "10.0.0.2"); err != nil {
		t.Errorf("Login() from other IP error = %v", err)
	}

	// The lockout lapses with the window.
	f.now = f.now.Add(16 * time.Minute)
	if _, err := f.service.Login(ctx, "user@example.com", "Corr3ct!Horse", "10.0.0.1"); err != nil {
		t.Errorf("Login() after window error = %v", err)
	}
}

func TestAuthService_SuccessResetsFailureCounter(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.addUser(t, "user@example.com", "Corr3ct!Horse")

	for i := 0; i < 4; i++ {
		if _, err := f.service.Login(ctx, "user@example.com", "wrong", "10.0.0.1"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("Login() failure error = %v", err)
		}
	}
	if _, err := f.service.Login(ctx, "user@example.com", "Corr3ct!Horse", "10.0.0.1"); err != nil {
		t.Fatalf("Login() success error = %v", err)
	}

	// The counter restarted: four more failures still do not lock.
	for i := 0; i < 4; i++ {
		if _, err := f.service.Login(ctx, "user@example.com", "wrong", "10.0.0.1"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("Login() post-reset failure error = %v, want ErrWrongPassword", err)
		}
	}
}

func TestAuthService_CorruptHashIsInternalError(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        "user@example.com",
		PasswordHash: "not-a-bcrypt-hash",
		Role:         domain.RoleUser,
	}
	if err := f.users.Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err := f.service.Login(ctx, "user@example.com", "whatever", "10.0.0.1")
	if err == nil {
		t.Fatal("Login() succeeded with a corrupt stored hash")
	}
	if errors.Is(err, ErrWrongPassword) || errors.Is(err, ErrEmailNotRegistered) {
		t.Errorf("corrupt hash surfaced as credential error: %v", err)
	}
}

func TestAuthService_RefreshWithRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := f.addUser(t, "user@example.com", "Corr3ct!Horse")

	refresh, err := f.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	result, err := f.service.Refresh(ctx, refresh, "")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Refresh() did not return a full token pair")
	}
}

func TestAuthService_BadRefreshTokenDoesNotFallThrough(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := f.addUser(t, "user@example.com", "Corr3ct!Horse")

	// A valid bearer token accompanies a garbage refresh token. The
	// refresh branch must fail terminally without consulting the bearer.
	bearer, err := f.issuer.IssueAccessToken(security.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := f.service.Refresh(ctx, "garbage", bearer); !errors.Is(err, ErrRefreshInvalid) {
		t.Errorf("Refresh() error = %v, want ErrRefreshInvalid", err)
	}
}

func TestAuthService_RefreshWithExpiredBearer(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := f.addUser(t, "user@example.com", "Corr3ct!Horse")

	// Issued two minutes in the past with a one minute TTL, so it is
	// already expired.
	past := time.Now().Add(-2 * time.Minute)
	shortIssuer := security.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour).
		WithClock(func() time.Time { return past })
	expired, err := shortIssuer.IssueAccessToken(security.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	result, err := f.service.Refresh(ctx, "", expired)
	if err != nil {
		t.Fatalf("Refresh() with expired bearer error = %v", err)
	}
	if result.AccessToken == "" {
		t.Error("Refresh() returned no access token")
	}
}

func TestAuthService_RefreshFallsBackWhenRefreshDisabled(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := f.addUser(t, "user@example.com", "Corr3ct!Horse")

	// No refresh secret configured: a stale refresh token in the request
	// must not block the bearer path.
	disabled := security.NewTokenIssuer("access-secret", "", time.Minute, time.Hour)
	lockout := config.LockoutSettings{MaxFailures: 5, Window: 15 * time.Minute}
	service := NewAuthService(f.users, memory.NewLoginAttemptStore(lockout.Window, 0), disabled, lockout, zap.NewNop()).
		WithSleep(func(time.Duration) {})

	past := time.Now().Add(-2 * time.Minute)
	expiredIssuer := security.NewTokenIssuer("access-secret", "", time.Minute, time.Hour).
		WithClock(func() time.Time { return past })
	expired, err := expiredIssuer.IssueAccessToken(security.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	result, err := service.Refresh(ctx, "some-old-refresh-token", expired)
	if err != nil {
		t.Fatalf("Refresh() without refresh support error = %v", err)
	}
	if result.AccessToken == "" {
		t.Error("Refresh() returned no access token")
	}
	if result.RefreshToken != "" {
		t.Error("Refresh() minted a refresh token with refresh disabled")
	}
}

func TestAuthService_RefreshWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	if _, err := f.service.Refresh(ctx, "", ""); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Refresh() error = %v, want ErrAuthRequired", err)
	}
}

func TestAuthService_RefreshForDeletedUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	refresh, err := f.issuer.IssueRefreshToken(uuid.NewString())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := f.service.Refresh(ctx, refresh, ""); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Refresh() for deleted user error = %v, want ErrAuthRequired", err)
	}
}
