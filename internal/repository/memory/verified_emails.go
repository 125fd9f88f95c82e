package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// VerifiedEmailStore keeps the marks written after successful OTP
// verification. Marks live in memory and are mirrored to a JSON file so a
// restart between verification and registration does not lose them. The
// file holds the whole map and is rewritten on every mutation.
type VerifiedEmailStore struct {
	mu        sync.Mutex
	marks     map[string]time.Time
	path      string
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewVerifiedEmailStore loads any existing marks from path and starts a
// retention sweeper. An unreadable file is logged and treated as empty.
func NewVerifiedEmailStore(path string, retention, sweepInterval time.Duration, logger *zap.Logger) (*VerifiedEmailStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create verified marks dir: %w", err)
	}

	s := &VerifiedEmailStore{
		marks:     make(map[string]time.Time),
		path:      path,
		retention: retention,
		now:       time.Now,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	s.loadLocked()

	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s, nil
}

// WithClock overrides the store's time source. Test helper.
func (s *VerifiedEmailStore) WithClock(now func() time.Time) *VerifiedEmailStore {
	s.now = now
	return s
}

// Mark records that email passed OTP verification at the given time.
func (s *VerifiedEmailStore) Mark(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks[strings.ToLower(email)] = at
	s.persistLocked()
	return nil
}

// IsVerified reports whether email holds an unexpired mark. When memory has
// no mark the file is re-read first, so marks written by a previous process
// still count.
func (s *VerifiedEmailStore) IsVerified(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.marks[key]; !ok {
		s.loadLocked()
	}

	at, ok := s.marks[key]
	if !ok {
		return false, nil
	}
	if s.now().Sub(at) > s.retention {
		delete(s.marks, key)
		s.persistLocked()
		return false, nil
	}
	return true, nil
}

// Consume removes email's mark once registration completes.
func (s *VerifiedEmailStore) Consume(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.marks[key]; !ok {
		return nil
	}
	delete(s.marks, key)
	s.persistLocked()
	return nil
}

// Close stops the retention sweeper.
func (s *VerifiedEmailStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *VerifiedEmailStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			changed := false
			for email, at := range s.marks {
				if now.Sub(at) > s.retention {
					delete(s.marks, email)
					changed = true
				}
			}
			if changed {
				s.persistLocked()
			}
			s.mu.Unlock()
		}
	}
}

// loadLocked merges marks from disk into memory. Caller holds s.mu.
func (s *VerifiedEmailStore) loadLocked() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.logger != nil {
			s.logger.Warn("failed to read verified marks file", zap.Error(err))
		}
		return
	}

	var stored map[string]time.Time
	if err := json.Unmarshal(data, &stored); err != nil {
		if s.logger != nil {
			s.logger.Warn("malformed verified marks file, ignoring", zap.Error(err))
		}
		return
	}

	for email, at := range stored {
		if _, ok := s.marks[email]; !ok {
			s.marks[email] = at
		}
	}
}

// persistLocked rewrites the whole file from memory. Caller holds s.mu.
// Persistence failures are logged; the in-memory mark still stands.
func (s *VerifiedEmailStore) persistLocked() {
	data, err := json.MarshalIndent(s.marks, "", "  ")
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode verified marks", zap.Error(err))
		}
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil && s.logger != nil {
		s.logger.Error("failed to write verified marks file", zap.Error(err))
	}
}
