package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LoginAttemptStore counts failed logins per (email, IP) pair. A sweeper
// purges entries older than the lockout window on a fixed interval, so
// pairs that never log in again do not accrete.
type LoginAttemptStore struct {
	mu        sync.Mutex
	buckets   map[string][]time.Time
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewLoginAttemptStore builds the store. Retention is how long a failure
// stays relevant (the lockout window); for a positive interval a sweeper
// purges older entries.
func NewLoginAttemptStore(retention, sweepInterval time.Duration) *LoginAttemptStore {
	s := &LoginAttemptStore{
		buckets:   make(map[string][]time.Time),
		retention: retention,
		stop:      make(chan struct{}),
	}
	if sweepInterval > 0 && retention > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Close stops the purge sweeper.
func (s *LoginAttemptStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *LoginAttemptStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.retention)
			s.mu.Lock()
			for key, attempts := range s.buckets {
				kept := attempts[:0]
				for _, at := range attempts {
					if !at.Before(cutoff) {
						kept = append(kept, at)
					}
				}
				if len(kept) == 0 {
					delete(s.buckets, key)
					continue
				}
				s.buckets[key] = kept
			}
			s.mu.Unlock()
		}
	}
}

func loginKey(email, ip string) string {
	return strings.ToLower(email) + "|" + ip
}

// RecordFailure logs a failed attempt and returns the total number recorded
// for the pair.
func (s *LoginAttemptStore) RecordFailure(_ context.Context, email, ip string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loginKey(email, ip)
	s.buckets[key] = append(s.buckets[key], at)
	return len(s.buckets[key]), nil
}

// FailureCount returns the number of failures at or after windowStart,
// pruning older entries as a side effect.
func (s *LoginAttemptStore) FailureCount(_ context.Context, email, ip string, windowStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loginKey(email, ip)
	attempts := s.buckets[key]
	kept := attempts[:0]
	for _, at := range attempts {
		if !at.Before(windowStart) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(s.buckets, key)
		return 0, nil
	}
	s.buckets[key] = kept
	return len(kept), nil
}

// Reset clears the pair's failure history after a successful login.
func (s *LoginAttemptStore) Reset(_ context.Context, email, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, loginKey(email, ip))
	return nil
}
