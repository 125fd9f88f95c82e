package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/infra/security"
)

type auditCall struct {
	actorID  string
	action   string
	targetID string
}

type fakeAuditRecorder struct {
	calls []auditCall
}

func (f *fakeAuditRecorder) RecordHTTPAction(_ context.Context, actorID, action, targetID, _ string) {
	f.calls = append(f.calls, auditCall{actorID: actorID, action: action, targetID: targetID})
}

func newAuditedRouter(recorder *fakeAuditRecorder, identity bool) *gin.Engine {
	r := gin.New()
	if identity {
		r.Use(func(c *gin.Context) {
			c.Set(CtxIdentity, security.Identity{UserID: "admin-1"})
		})
	}
	r.Use(AuditTrail(recorder))
	r.GET("/api/admin/questions", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/api/admin/questions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/api/admin/resources/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	return r
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	recorder := &fakeAuditRecorder{}
	r := newAuditedRouter(recorder, true)

	doRequest(r, http.MethodPut, "/api/admin/questions/q-1", nil)

	if len(recorder.calls) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorder.calls))
	}
	call := recorder.calls[0]
	if call.actorID != "admin-1" {
		t.Errorf("actorID = %q, want admin-1", call.actorID)
	}
	if call.action != "questions.update" {
		t.Errorf("action = %q, want questions.update", call.action)
	}
	if call.targetID != "q-1" {
		t.Errorf("targetID = %q, want q-1", call.targetID)
	}
}

func TestAuditTrailSkipsReads(t *testing.T) {
	recorder := &fakeAuditRecorder{}
	r := newAuditedRouter(recorder, true)

	doRequest(r, http.MethodGet, "/api/admin/questions", nil)

	if len(recorder.calls) != 0 {
		t.Fatalf("expected no audit entries for GET, got %d", len(recorder.calls))
	}
}

func TestAuditTrailSkipsFailures(t *testing.T) {
	recorder := &fakeAuditRecorder{}
	r := newAuditedRouter(recorder, true)

	doRequest(r, http.MethodDelete, "/api/admin/resources/r-1", nil)

	if len(recorder.calls) != 0 {
		t.Fatalf("expected no audit entries for failed request, got %d", len(recorder.calls))
	}
}

func TestAuditTrailSkipsAnonymous(t *testing.T) {
	recorder := &fakeAuditRecorder{}
	r := newAuditedRouter(recorder, false)

	doRequest(r, http.MethodPut, "/api/admin/questions/q-1", nil)

	if len(recorder.calls) != 0 {
		t.Fatalf("expected no audit entries without an identity, got %d", len(recorder.calls))
	}
}

func TestAuditAction(t *testing.T) {
	cases := []struct {
		method string
		route  string
		want   string
	}{
		{http.MethodPost, "/api/admin/questions", "questions.create"},
		{http.MethodPut, "/api/admin/questions/:id", "questions.update"},
		{http.MethodPatch, "/api/admin/resources/:id", "resources.update"},
		{http.MethodDelete, "/api/admin/announcements/:id", "announcements.delete"},
	}
	for _, tc := range cases {
		if got := auditAction(tc.method, tc.route); got != tc.want {
			t.Errorf("auditAction(%s, %s) = %q, want %q", tc.method, tc.route, got, tc.want)
		}
	}
}
