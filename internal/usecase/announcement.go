package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

var (
	// ErrAnnouncementNotFound is returned for an unknown announcement ID.
	ErrAnnouncementNotFound = errors.New("announcement not found")
	// ErrInvalidAnnouncement is returned for a rejected announcement.
	ErrInvalidAnnouncement = errors.New("invalid announcement")
)

// AnnouncementService manages announcements and fans them out to user
// notifications.
type AnnouncementService struct {
	announcements port.AnnouncementRepository
	notifications port.NotificationRepository
	users         port.UserRepository
	cache         port.ResponseCache
	events        port.EventPublisher
	logger        *zap.Logger
	now           func() time.Time

	// fanoutTimeout bounds the detached notification fanout.
	fanoutTimeout time.Duration
}

func NewAnnouncementService(
	announcements port.AnnouncementRepository,
	notifications port.NotificationRepository,
	users port.UserRepository,
	cache port.ResponseCache,
	events port.EventPublisher,
	log *zap.Logger,
) *AnnouncementService {
	return &AnnouncementService{
		announcements: announcements,
		notifications: notifications,
		users:         users,
		cache:         cache,
		events:        events,
		logger:        log,
		now:           time.Now,
		fanoutTimeout: 30 * time.Second,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *AnnouncementService) WithClock(now func() time.Time) *AnnouncementService {
	s.now = now
	return s
}

// Create stores an announcement and kicks off notification fanout in the
// background. The response does not wait for the fanout; a fanout failure
// is logged, the announcement itself stands.
func (s *AnnouncementService) Create(ctx context.Context, announcement *domain.Announcement) (*domain.Announcement, error) {
	if strings.TrimSpace(announcement.Title) == "" || strings.TrimSpace(announcement.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidAnnouncement)
	}

	now := s.now()
	announcement.ID = uuid.NewString()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now

	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	s.cache.Invalidate("/api/announcements", "/api/notifications")

	s.events.Publish(domain.TopicAnnouncementCreated, domain.AnnouncementCreatedEvent{
		AnnouncementID: announcement.ID,
		Title:          announcement.Title,
		OccurredAt:     now,
	})

	// Detach from the request context so client disconnects do not cancel
	// the fanout mid-way.
	go s.fanout(*announcement)

	s.logger.Info("announcement created", zap.String("announcement_id", announcement.ID))
	return announcement, nil
}

func (s *AnnouncementService) fanout(announcement domain.Announcement) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fanoutTimeout)
	defer cancel()

	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		s.logger.Error("announcement fanout: list users failed",
			zap.String("announcement_id", announcement.ID),
			zap.Error(err),
		)
		return
	}

	now := s.now()
	notifications := make([]domain.Notification, 0, len(ids))
	for _, userID := range ids {
		notifications = append(notifications, domain.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     announcement.Title,
			Message:   announcement.Content,
			CreatedAt: now,
		})
	}

	if err := s.notifications.CreateBatch(ctx, notifications); err != nil {
		s.logger.Error("announcement fanout: insert notifications failed",
			zap.String("announcement_id", announcement.ID),
			zap.Int("recipients", len(notifications)),
			zap.Error(err),
		)
		return
	}

	s.cache.Invalidate("/api/notifications")
	s.logger.Info("announcement fanned out",
		zap.String("announcement_id", announcement.ID),
		zap.Int("recipients", len(notifications)),
	)
}

func (s *AnnouncementService) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("load announcement: %w", err)
	}
	return announcement, nil
}

func (s *AnnouncementService) Update(ctx context.Context, announcement *domain.Announcement) (*domain.Announcement, error) {
	if strings.TrimSpace(announcement.Title) == "" || strings.TrimSpace(announcement.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidAnnouncement)
	}

	announcement.UpdatedAt = s.now()
	if err := s.announcements.Update(ctx, announcement); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("update announcement: %w", err)
	}

	s.cache.Invalidate("/api/announcements")
	return announcement, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.announcements.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAnnouncementNotFound
		}
		return fmt.Errorf("delete announcement: %w", err)
	}

	s.cache.Invalidate("/api/announcements")
	return nil
}

func (s *AnnouncementService) List(ctx context.Context, page, pageSize int) ([]domain.Announcement, int, error) {
	announcements, total, err := s.announcements.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, total, nil
}
