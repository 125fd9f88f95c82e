package port

import (
	"context"
	"time"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, pageSize int) ([]domain.User, int, error)
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	ListIDs(ctx context.Context) ([]string, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
}

// QuestionRepository persists exam questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *domain.Question) error
	GetByID(ctx context.Context, id string) (*domain.Question, error)
	Update(ctx context.Context, question *domain.Question) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error)
	RandomSample(ctx context.Context, filter domain.QuestionFilter, limit int) ([]domain.Question, error)
	Count(ctx context.Context) (int, error)
	CountBySubject(ctx context.Context) (map[string]int, error)
}

// ResourceRepository persists study material metadata.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	Update(ctx context.Context, resource *domain.Resource) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int, error)
	Count(ctx context.Context) (int, error)
}

// AnnouncementRepository persists announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *domain.Announcement) error
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	Update(ctx context.Context, announcement *domain.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, pageSize int) ([]domain.Announcement, int, error)
}

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	CreateBatch(ctx context.Context, notifications []domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

// ContactRepository persists contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, submission *domain.ContactSubmission) error
	List(ctx context.Context, page, pageSize int) ([]domain.ContactSubmission, int, error)
}

// AuditRepository persists the admin audit trail.
type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error)
}
