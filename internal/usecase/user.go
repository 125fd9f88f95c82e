package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

// ErrUserNotFound is returned for an unknown user ID.
var ErrUserNotFound = errors.New("user not found")

// Bookmark kinds.
const (
	BookmarkQuestion = "question"
	BookmarkResource = "resource"
)

// UserService manages profile updates and bookmarks.
type UserService struct {
	users  port.UserRepository
	cache  port.ResponseCache
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(users port.UserRepository, cache port.ResponseCache, log *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// ToggleBookmark adds the target ID to the user's bookmark list, or removes
// it if already present. Returns true when the target ends up bookmarked.
func (s *UserService) ToggleBookmark(ctx context.Context, userID, kind, targetID string) (bool, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	var list *[]string
	switch kind {
	case BookmarkQuestion:
		list = &user.BookmarkedQuestions
	case BookmarkResource:
		list = &user.BookmarkedResources
	default:
		return false, fmt.Errorf("unknown bookmark kind %q", kind)
	}

	bookmarked := false
	next := make([]string, 0, len(*list)+1)
	for _, id := range *list {
		if id == targetID {
			continue
		}
		next = append(next, id)
	}
	if len(next) == len(*list) {
		next = append(next, targetID)
		bookmarked = true
	}
	*list = next

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return false, fmt.Errorf("save bookmarks: %w", err)
	}

	// Bookmark filtered listings are keyed per user but share the same
	// path prefixes.
	s.cache.Invalidate("/api/questions", "/api/resources")
	return bookmarked, nil
}
