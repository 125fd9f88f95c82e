package port

import "time"

// CachedResponse is a stored response body with its content type and status.
type CachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// ResponseCache stores rendered GET responses keyed by requester identity
// and path. Implementations are safe for concurrent use.
type ResponseCache interface {
	Lookup(key string) (CachedResponse, bool)
	Store(key string, response CachedResponse, ttl time.Duration)
	Invalidate(prefixes ...string)
	Flush()
	Len() int
	Close()
}
