package memory

import (
	"context"
	"sync"
	"time"
)

type rateBucket struct {
	attempts  []time.Time
	expiresAt time.Time
}

// RateLimitStore is the in-process sliding window attempt log. It mirrors
// the Redis implementation and is the default when no Redis backend is
// configured. A sweeper drops buckets whose newest attempt has aged out of
// its window.
type RateLimitStore struct {
	mu       sync.Mutex
	buckets  map[string]rateBucket
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimitStore builds the store and, for a positive interval, starts
// the bucket sweeper.
func NewRateLimitStore(sweepInterval time.Duration) *RateLimitStore {
	s := &RateLimitStore{
		buckets: make(map[string]rateBucket),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Close stops the bucket sweeper.
func (s *RateLimitStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *RateLimitStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, b := range s.buckets {
				if !now.Before(b.expiresAt) {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// TrimWindow drops attempts older than windowStart from the key's bucket.
func (s *RateLimitStore) TrimWindow(_ context.Context, key string, windowStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[key]
	kept := b.attempts[:0]
	for _, at := range b.attempts {
		if !at.Before(windowStart) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(s.buckets, key)
		return nil
	}
	b.attempts = kept
	s.buckets[key] = b
	return nil
}

// CountAttempts returns the number of recorded attempts for key.
func (s *RateLimitStore) CountAttempts(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[key].attempts), nil
}

// RecordAttempt appends an attempt timestamp. The TTL extends the bucket's
// lifetime for the sweeper, matching the Redis backend's key expiry.
func (s *RateLimitStore) RecordAttempt(_ context.Context, key string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[key]
	b.attempts = append(b.attempts, at)
	if deadline := at.Add(ttl); deadline.After(b.expiresAt) {
		b.expiresAt = deadline
	}
	s.buckets[key] = b
	return nil
}

// OldestAttempt returns the earliest recorded attempt for key, or the zero
// time when the bucket is empty.
func (s *RateLimitStore) OldestAttempt(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[key]
	if len(b.attempts) == 0 {
		return time.Time{}, nil
	}
	oldest := b.attempts[0]
	for _, at := range b.attempts[1:] {
		if at.Before(oldest) {
			oldest = at
		}
	}
	return oldest, nil
}

// Clear removes the key's bucket entirely.
func (s *RateLimitStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}
