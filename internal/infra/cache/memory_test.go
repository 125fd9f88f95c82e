package cache

import (
	"testing"
	"time"

	"github.com/TheVish04/CAprep/internal/core/port"
)

func newTestCache(t *testing.T) (*Memory, *time.Time) {
	t.Helper()
	now := time.Now()
	c := NewMemory(0, nil).WithClock(func() time.Time { return now })
	t.Cleanup(c.Close)
	return c, &now
}

func cachedBody(body string) port.CachedResponse {
	return port.CachedResponse{Status: 200, ContentType: "application/json", Body: []byte(body)}
}

func TestMemory_StoreAndLookup(t *testing.T) {
	c, _ := newTestCache(t)

	c.Store("user-1:/api/questions?page=1", cachedBody(`{"questions":[]}`), time.Minute)

	got, ok := c.Lookup("user-1:/api/questions?page=1")
	if !ok {
		t.Fatal("Lookup() miss after Store()")
	}
	if string(got.Body) != `{"questions":[]}` {
		t.Errorf("Lookup() body = %q", got.Body)
	}

	if _, ok := c.Lookup("user-2:/api/questions?page=1"); ok {
		t.Error("Lookup() hit for a different identity")
	}
}

func TestMemory_TTLBoundary(t *testing.T) {
	c, now := newTestCache(t)

	c.Store("guest:/api/announcements", cachedBody(`[]`), time.Minute)

	*now = now.Add(59 * time.Second)
	if _, ok := c.Lookup("guest:/api/announcements"); !ok {
		t.Error("Lookup() missed before expiry")
	}

	*now = now.Add(time.Second)
	if _, ok := c.Lookup("guest:/api/announcements"); ok {
		t.Error("Lookup() hit at expiry instant")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

func TestMemory_InvalidatePrefixAcrossIdentities(t *testing.T) {
	c, _ := newTestCache(t)

	c.Store("user-1:/api/questions?page=1", cachedBody(`a`), time.Minute)
	c.Store("user-2:/api/questions?page=2", cachedBody(`b`), time.Minute)
	c.Store("user-1:/api/resources", cachedBody(`c`), time.Minute)

	c.Invalidate("/api/questions")

	if _, ok := c.Lookup("user-1:/api/questions?page=1"); ok {
		t.Error("entry for user-1 survived invalidation")
	}
	if _, ok := c.Lookup("user-2:/api/questions?page=2"); ok {
		t.Error("entry for user-2 survived invalidation")
	}
	if _, ok := c.Lookup("user-1:/api/resources"); !ok {
		t.Error("unrelated prefix was invalidated")
	}
}

func TestMemory_InvalidateMultiplePrefixes(t *testing.T) {
	c, _ := newTestCache(t)

	c.Store("guest:/api/questions", cachedBody(`a`), time.Minute)
	c.Store("guest:/api/resources", cachedBody(`b`), time.Minute)
	c.Store("guest:/api/announcements", cachedBody(`c`), time.Minute)

	c.Invalidate("/api/questions", "/api/resources")

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Lookup("guest:/api/announcements"); !ok {
		t.Error("announcements entry was invalidated")
	}
}

func TestMemory_Flush(t *testing.T) {
	c, _ := newTestCache(t)

	c.Store("guest:/api/questions", cachedBody(`a`), time.Minute)
	c.Store("user-1:/api/resources", cachedBody(`b`), time.Minute)

	c.Flush()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Flush(), want 0", c.Len())
	}
}

func TestMemory_ZeroTTLNotStored(t *testing.T) {
	c, _ := newTestCache(t)

	c.Store("guest:/api/questions", cachedBody(`a`), 0)

	if c.Len() != 0 {
		t.Errorf("Len() = %d after zero TTL store, want 0", c.Len())
	}
}

func TestMemory_SweeperRemovesExpired(t *testing.T) {
	c := NewMemory(10*time.Millisecond, nil)
	defer c.Close()

	c.Store("guest:/api/questions", cachedBody(`a`), 5*time.Millisecond)
	c.Store("guest:/api/resources", cachedBody(`b`), time.Minute)

	deadline := time.Now().Add(time.Second)
	for c.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Len() = %d, sweeper did not remove expired entry", c.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
