package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuditRecorder writes an audit entry for an admin action. Recording is
// fire and forget from the middleware's perspective.
type AuditRecorder interface {
	RecordHTTPAction(ctx context.Context, actorID, action, targetID, ip string)
}

// AuditTrail records successful mutating requests on the routes it wraps.
// Reads are not audited.
func AuditTrail(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		if c.Writer.Status() >= http.StatusMultipleChoices {
			return
		}
		identity, ok := IdentityFrom(c)
		if !ok {
			return
		}

		recorder.RecordHTTPAction(
			c.Request.Context(),
			identity.UserID,
			auditAction(c.Request.Method, c.FullPath()),
			c.Param("id"),
			c.ClientIP(),
		)
	}
}

// auditAction turns "PUT /api/admin/questions/:id" into "questions.update".
func auditAction(method, route string) string {
	entity := ""
	for _, segment := range strings.Split(route, "/") {
		if segment == "" || strings.HasPrefix(segment, ":") {
			continue
		}
		entity = segment
	}

	verb := strings.ToLower(method)
	switch method {
	case http.MethodPost:
		verb = "create"
	case http.MethodPut, http.MethodPatch:
		verb = "update"
	case http.MethodDelete:
		verb = "delete"
	}
	return entity + "." + verb
}
