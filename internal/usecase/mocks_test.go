package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, u := range r.users {
		if !u.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetTokenHash = tokenHash
	user.ResetTokenExpiresAt = expiresAt
	return nil
}

func (r *fakeUserRepo) ClearResetToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetTokenHash = ""
	user.ResetTokenExpiresAt = time.Time{}
	return nil
}

// fakeEmailSender records sent messages.
type fakeEmailSender struct {
	mu       sync.Mutex
	messages []port.EmailMessage
	err      error
}

func (s *fakeEmailSender) Send(_ context.Context, msg port.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeEmailSender) sent() []port.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]port.EmailMessage(nil), s.messages...)
}

// fakeEvents records published events.
type fakeEvents struct {
	mu     sync.Mutex
	topics []string
}

func (e *fakeEvents) Publish(topic string, _ any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
}

func (e *fakeEvents) Close() error { return nil }

func (e *fakeEvents) published() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.topics...)
}

// fakeVerified is an in-memory VerifiedEmailStore without persistence.
type fakeVerified struct {
	mu    sync.Mutex
	marks map[string]time.Time
}

func newFakeVerified() *fakeVerified {
	return &fakeVerified{marks: make(map[string]time.Time)}
}

func (v *fakeVerified) Mark(_ context.Context, email string, at time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marks[strings.ToLower(email)] = at
	return nil
}

func (v *fakeVerified) IsVerified(_ context.Context, email string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.marks[strings.ToLower(email)]
	return ok, nil
}

func (v *fakeVerified) Consume(_ context.Context, email string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.marks, strings.ToLower(email))
	return nil
}

// fakeCache records invalidations.
type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
	flushed     bool
}

func (c *fakeCache) Lookup(string) (port.CachedResponse, bool) { return port.CachedResponse{}, false }
func (c *fakeCache) Store(string, port.CachedResponse, time.Duration) {
}
func (c *fakeCache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefixes...)
}
func (c *fakeCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed = true
}
func (c *fakeCache) Len() int { return 0 }
func (c *fakeCache) Close()   {}
