package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/security"
)

func newAuthedRouter(issuer *security.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(issuer), func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": identity.UserID})
	})
	r.GET("/admin", RequireAuth(issuer), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	issuer := security.NewTokenIssuer("secret", "", time.Hour, 0)
	r := newAuthedRouter(issuer)

	token, err := issuer.IssueAccessToken(security.Identity{UserID: "user-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer garbage", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := doRequest(r, http.MethodGet, "/me", headers)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := security.NewTokenIssuer("secret", "", time.Hour, 0).
		WithClock(func() time.Time { return past })
	token, err := issuer.IssueAccessToken(security.Identity{UserID: "user-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	live := security.NewTokenIssuer("secret", "", time.Hour, 0)
	r := newAuthedRouter(live)

	w := doRequest(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	issuer := security.NewTokenIssuer("secret", "", time.Hour, 0)
	r := newAuthedRouter(issuer)

	adminToken, err := issuer.IssueAccessToken(security.Identity{UserID: "admin-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	userToken, err := issuer.IssueAccessToken(security.Identity{UserID: "user-1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if w := doRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + adminToken}); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + userToken}); w.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", w.Code)
	}
}
