// Package memory holds the process-local stores behind the auth flows: one
// time codes, sliding window rate buckets, login failure counters and the
// file backed verified email marks.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

type otpEntry struct {
	codeHash  string
	attempts  int
	expiresAt time.Time
}

// OTPStore keeps at most one active code per (email, purpose). A sweeper
// drops expired codes on a fixed interval so untouched keys do not pile up.
type OTPStore struct {
	mu       sync.Mutex
	entries  map[string]otpEntry
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewOTPStore builds the store and, for a positive interval, starts the
// expiry sweeper.
func NewOTPStore(sweepInterval time.Duration) *OTPStore {
	s := &OTPStore{
		entries: make(map[string]otpEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Close stops the expiry sweeper.
func (s *OTPStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *OTPStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if !now.Before(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// WithClock overrides the store's time source. Test helper.
func (s *OTPStore) WithClock(now func() time.Time) *OTPStore {
	s.now = now
	return s
}

func otpKey(email, purpose string) string {
	return strings.ToLower(email) + "|" + purpose
}

// Store saves a code, replacing any previous one for the same (email,
// purpose) and resetting its attempt counter.
func (s *OTPStore) Store(_ context.Context, record port.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[otpKey(record.Email, record.Purpose)] = otpEntry{
		codeHash:  record.CodeHash,
		expiresAt: record.ExpiresAt,
	}
	return nil
}

// Fetch returns the active code for (email, purpose). An expired code is
// removed and reported as expired, distinct from never having been issued.
func (s *OTPStore) Fetch(_ context.Context, email, purpose string) (port.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(email, purpose)
	e, ok := s.entries[key]
	if !ok {
		return port.OTPRecord{}, repository.ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return port.OTPRecord{}, repository.ErrExpired
	}

	return port.OTPRecord{
		Email:     strings.ToLower(email),
		Purpose:   purpose,
		CodeHash:  e.codeHash,
		Attempts:  e.attempts,
		ExpiresAt: e.expiresAt,
	}, nil
}

// IncrementAttempts bumps the failed attempt counter and returns the new
// count.
func (s *OTPStore) IncrementAttempts(_ context.Context, email, purpose string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(email, purpose)
	e, ok := s.entries[key]
	if !ok {
		return 0, repository.ErrNotFound
	}
	e.attempts++
	s.entries[key] = e
	return e.attempts, nil
}

// Delete removes the active code, if any.
func (s *OTPStore) Delete(_ context.Context, email, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, otpKey(email, purpose))
	return nil
}
