package security

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)

	id := Identity{
		UserID:   "user-1",
		Role:     "admin",
		FullName: "Asha Rao",
		Email:    "asha@example.com",
	}

	token, err := issuer.IssueAccessToken(id)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	got, err := issuer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if got != id {
		t.Errorf("ParseAccessToken() = %+v, want %+v", got, id)
	}
}

func TestTokenIssuer_ExpiredAccessToken(t *testing.T) {
	base := time.Now()
	issuer := NewTokenIssuer("access-secret", "", time.Minute, 0).
		WithClock(func() time.Time { return base })

	token, err := issuer.IssueAccessToken(Identity{UserID: "user-1", Role: "user"})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	issuer.WithClock(func() time.Time { return base.Add(2 * time.Minute) })

	if _, err := issuer.ParseAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ParseAccessToken() error = %v, want ErrExpiredToken", err)
	}

	got, err := issuer.ParseAccessTokenIgnoreExpiry(token)
	if err != nil {
		t.Fatalf("ParseAccessTokenIgnoreExpiry() error = %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("ParseAccessTokenIgnoreExpiry() UserID = %q, want %q", got.UserID, "user-1")
	}
}

func TestTokenIssuer_RefreshRejectsAccessToken(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)

	access, err := issuer.IssueAccessToken(Identity{UserID: "user-1", Role: "user"})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := issuer.ParseRefreshToken(access); err == nil {
		t.Error("ParseRefreshToken() accepted an access token")
	}
}

func TestTokenIssuer_RefreshRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)

	refresh, err := issuer.IssueRefreshToken("user-42")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	userID, err := issuer.ParseRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}
	if userID != "user-42" {
		t.Errorf("ParseRefreshToken() = %q, want %q", userID, "user-42")
	}
}

func TestTokenIssuer_RefreshDisabled(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "", time.Hour, 0)

	if _, err := issuer.IssueRefreshToken("user-1"); !errors.Is(err, ErrRefreshDisabled) {
		t.Errorf("IssueRefreshToken() error = %v, want ErrRefreshDisabled", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "", time.Hour, 0)
	other := NewTokenIssuer("different-secret", "", time.Hour, 0)

	token, err := issuer.IssueAccessToken(Identity{UserID: "user-1", Role: "user"})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := other.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseAccessToken() error = %v, want ErrInvalidToken", err)
	}
}
