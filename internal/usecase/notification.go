package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService serves a user's notification feed.
type NotificationService struct {
	notifications port.NotificationRepository
	cache         port.ResponseCache
	logger        *zap.Logger
}

func NewNotificationService(notifications port.NotificationRepository, cache port.ResponseCache, log *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		cache:         cache,
		logger:        log,
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error) {
	notifications, total, err := s.notifications.ListByUser(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	s.cache.Invalidate("/api/notifications")
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	s.cache.Invalidate("/api/notifications")
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.Delete(ctx, userID, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	s.cache.Invalidate("/api/notifications")
	return nil
}
