package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheVish04/CAprep/internal/core/port"
)

// SkipCacheHeader lets a client bypass the response cache for one request.
// The fresh response is not stored either.
const SkipCacheHeader = "X-Skip-Cache"

const cacheStateHeader = "X-Cache"

// bodyCapture tees the response body so a successful render can be stored.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheResponse serves GET responses from the cache, keyed by requester
// identity and the full original URL. Only 2xx responses are stored.
// Authenticated users each get their own partition; anonymous requests
// share the "guest" bucket.
func CacheResponse(cache port.ResponseCache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		if c.GetHeader(SkipCacheHeader) != "" {
			c.Writer.Header().Set(cacheStateHeader, "BYPASS")
			c.Next()
			return
		}

		key := cacheKey(c)
		if cached, ok := cache.Lookup(key); ok {
			c.Writer.Header().Set(cacheStateHeader, "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Writer.Header().Set(cacheStateHeader, "MISS")

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		cache.Store(key, port.CachedResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        append([]byte(nil), capture.buf.Bytes()...),
		}, ttl)
	}
}

// cacheKey partitions entries by requester identity. The auth middleware
// runs earlier on protected routes; public routes fall into the guest
// bucket.
func cacheKey(c *gin.Context) string {
	bucket := "guest"
	if identity, ok := IdentityFrom(c); ok {
		bucket = identity.UserID
	}
	return bucket + ":" + c.Request.URL.RequestURI()
}
