package domain

import "time"

// Event topics published to the message bus.
const (
	TopicUserRegistered      = "user.registered"
	TopicPasswordChanged     = "user.password_changed"
	TopicAnnouncementCreated = "announcement.created"
)

// UserRegisteredEvent is published after a successful registration.
type UserRegisteredEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PasswordChangedEvent is published after a password reset completes.
type PasswordChangedEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AnnouncementCreatedEvent is published when an admin posts an announcement.
type AnnouncementCreatedEvent struct {
	AnnouncementID string    `json:"announcement_id"`
	Title          string    `json:"title"`
	OccurredAt     time.Time `json:"occurred_at"`
}
