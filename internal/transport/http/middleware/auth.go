package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/infra/security"
)

// BearerToken extracts the token from an Authorization header, or "" when
// absent or malformed.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth verifies the bearer access token and stores the identity in
// the request context.
func RequireAuth(issuer *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, "AUTH_REQUIRED", "Authentication required")
			return
		}

		identity, err := issuer.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, security.ErrExpiredToken) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Access token expired")
				return
			}
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid access token")
			return
		}

		c.Set(CtxIdentity, identity)
		c.Next()
	}
}

// RequireAdmin allows only admin identities through. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortUnauthorized(c, "AUTH_REQUIRED", "Authentication required")
			return
		}
		if identity.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin access required",
				},
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
