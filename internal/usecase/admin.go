package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/domain"
	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/repository"
)

// ErrCannotDeleteSelf is returned when an admin tries to delete their own
// account.
var ErrCannotDeleteSelf = errors.New("cannot delete your own account")

// Analytics is the platform summary served to the admin dashboard.
type Analytics struct {
	Users              int            `json:"users"`
	RecentSignups      int            `json:"recentSignups"`
	Questions          int            `json:"questions"`
	Resources          int            `json:"resources"`
	QuestionsBySubject map[string]int `json:"questionsBySubject"`
	GeneratedAt        time.Time      `json:"generatedAt"`
}

// recentSignupWindow is the lookback for the dashboard's signup count.
const recentSignupWindow = 7 * 24 * time.Hour

// AdminService backs the admin panel: analytics, user management, audit
// trail and cache control.
type AdminService struct {
	users         port.UserRepository
	questions     port.QuestionRepository
	resources     port.ResourceRepository
	notifications port.NotificationRepository
	audit         port.AuditRepository
	cache         port.ResponseCache
	logger        *zap.Logger
	now           func() time.Time
}

func NewAdminService(
	users port.UserRepository,
	questions port.QuestionRepository,
	resources port.ResourceRepository,
	notifications port.NotificationRepository,
	audit port.AuditRepository,
	cache port.ResponseCache,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		users:         users,
		questions:     questions,
		resources:     resources,
		notifications: notifications,
		audit:         audit,
		cache:         cache,
		logger:        log,
		now:           time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

// Analytics aggregates platform counts. The handler caches the rendered
// response with a long TTL, so this path tolerates being expensive.
func (s *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	recent, err := s.users.CountCreatedSince(ctx, s.now().Add(-recentSignupWindow))
	if err != nil {
		return nil, fmt.Errorf("count recent signups: %w", err)
	}
	questions, err := s.questions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	resources, err := s.resources.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}
	bySubject, err := s.questions.CountBySubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions by subject: %w", err)
	}

	return &Analytics{
		Users:              users,
		RecentSignups:      recent,
		Questions:          questions,
		Resources:          resources,
		QuestionsBySubject: bySubject,
		GeneratedAt:        s.now(),
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrCannotDeleteSelf
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.recordAudit(ctx, actorID, "user.delete", userID, "")
	return nil
}

// Broadcast sends a notification to every user.
func (s *AdminService) Broadcast(ctx context.Context, actorID, title, message string) (int, error) {
	if title == "" || message == "" {
		return 0, fmt.Errorf("%w: title and message are required", ErrInvalidAnnouncement)
	}

	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	notifications := make([]domain.Notification, 0, len(ids))
	for _, userID := range ids {
		notifications = append(notifications, domain.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     title,
			Message:   message,
			CreatedAt: now,
		})
	}
	if err := s.notifications.CreateBatch(ctx, notifications); err != nil {
		return 0, fmt.Errorf("insert broadcast notifications: %w", err)
	}

	s.cache.Invalidate("/api/notifications")
	s.recordAudit(ctx, actorID, "notification.broadcast", "", fmt.Sprintf("recipients=%d", len(notifications)))
	return len(notifications), nil
}

// ClearCache flushes the whole response cache.
func (s *AdminService) ClearCache(ctx context.Context, actorID string) {
	s.cache.Flush()
	s.recordAudit(ctx, actorID, "cache.clear", "", "")
	s.logger.Info("response cache flushed", zap.String("actor_id", actorID))
}

func (s *AdminService) AuditLog(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error) {
	entries, total, err := s.audit.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, total, nil
}

// RecordAction writes an audit entry for an admin action performed outside
// this service.
func (s *AdminService) RecordAction(ctx context.Context, actorID, action, targetID, detail string) {
	s.recordAudit(ctx, actorID, action, targetID, detail)
}

// RecordHTTPAction is RecordAction with the client IP attached; used by the
// audit middleware on the admin content routes.
func (s *AdminService) RecordHTTPAction(ctx context.Context, actorID, action, targetID, ip string) {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		IP:        ip,
		CreatedAt: s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *AdminService) recordAudit(ctx context.Context, actorID, action, targetID, detail string) {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
