// Package middleware holds the gin middleware chain: request identity,
// logging, auth, rate limiting, response caching and metrics.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/infra/security"
)

// Context keys set by the middleware chain.
const (
	CtxRequestID = "request_id"
	CtxIdentity  = "identity"
)

// IdentityFrom returns the verified identity set by RequireAuth.
func IdentityFrom(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return security.Identity{}, false
	}
	identity, ok := v.(security.Identity)
	return identity, ok
}

// RequestIDFrom returns the request ID assigned by RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(CtxRequestID)
}
