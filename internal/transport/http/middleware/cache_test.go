package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/infra/cache"
	"github.com/TheVish04/CAprep/internal/infra/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCachedRouter(t *testing.T, calls *int) (*gin.Engine, *cache.Memory) {
	t.Helper()

	store := cache.NewMemory(0, nil)
	t.Cleanup(store.Close)

	r := gin.New()
	r.GET("/api/questions", CacheResponse(store, time.Minute), func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"calls": *calls})
	})
	r.GET("/api/fail", CacheResponse(store, time.Minute), func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	r.POST("/api/questions", CacheResponse(store, time.Minute), func(c *gin.Context) {
		*calls++
		c.Status(http.StatusCreated)
	})
	return r, store
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCacheResponse_HitServesStoredBody(t *testing.T) {
	calls := 0
	r, _ := newCachedRouter(t, &calls)

	first := doRequest(r, http.MethodGet, "/api/questions", nil)
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}

	second := doRequest(r, http.MethodGet, "/api/questions", nil)
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached body differs from the original render")
	}
}

func TestCacheResponse_QueryStringPartOfKey(t *testing.T) {
	calls := 0
	r, _ := newCachedRouter(t, &calls)

	doRequest(r, http.MethodGet, "/api/questions?page=1", nil)
	doRequest(r, http.MethodGet, "/api/questions?page=2", nil)

	if calls != 2 {
		t.Errorf("handler ran %d times for distinct queries, want 2", calls)
	}
}

func TestCacheResponse_SkipHeaderBypasses(t *testing.T) {
	calls := 0
	r, store := newCachedRouter(t, &calls)

	doRequest(r, http.MethodGet, "/api/questions", nil)

	bypass := doRequest(r, http.MethodGet, "/api/questions", map[string]string{SkipCacheHeader: "1"})
	if bypass.Header().Get("X-Cache") != "BYPASS" {
		t.Errorf("X-Cache = %q, want BYPASS", bypass.Header().Get("X-Cache"))
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2 (bypass re-renders)", calls)
	}

	// The bypass did not overwrite the stored entry count.
	if store.Len() != 1 {
		t.Errorf("cache holds %d entries after bypass, want 1", store.Len())
	}
}

func TestCacheResponse_ErrorsNotCached(t *testing.T) {
	calls := 0
	r, store := newCachedRouter(t, &calls)

	doRequest(r, http.MethodGet, "/api/fail", nil)
	doRequest(r, http.MethodGet, "/api/fail", nil)

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2 (5xx never cached)", calls)
	}
	if store.Len() != 0 {
		t.Errorf("cache holds %d entries, want 0", store.Len())
	}
}

func TestCacheResponse_NonGETNotCached(t *testing.T) {
	calls := 0
	r, store := newCachedRouter(t, &calls)

	doRequest(r, http.MethodPost, "/api/questions", nil)
	doRequest(r, http.MethodPost, "/api/questions", nil)

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
	if store.Len() != 0 {
		t.Errorf("cache holds %d entries, want 0", store.Len())
	}
}

func TestCacheResponse_IdentityPartitioning(t *testing.T) {
	store := cache.NewMemory(0, nil)
	t.Cleanup(store.Close)

	calls := 0
	r := gin.New()
	r.GET("/api/feed",
		func(c *gin.Context) {
			// Stand-in for RequireAuth: identity comes from a header.
			if user := c.GetHeader("X-Test-User"); user != "" {
				c.Set(CtxIdentity, security.Identity{UserID: user})
			}
		},
		CacheResponse(store, time.Minute),
		func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"user": c.GetHeader("X-Test-User")})
		},
	)

	a1 := doRequest(r, http.MethodGet, "/api/feed", map[string]string{"X-Test-User": "user-a"})
	b1 := doRequest(r, http.MethodGet, "/api/feed", map[string]string{"X-Test-User": "user-b"})
	a2 := doRequest(r, http.MethodGet, "/api/feed", map[string]string{"X-Test-User": "user-a"})

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2 (one per identity)", calls)
	}
	if a1.Body.String() != a2.Body.String() {
		t.Error("user-a did not get their cached entry back")
	}
	if a1.Body.String() == b1.Body.String() {
		t.Error("identities shared a cache entry")
	}
}
