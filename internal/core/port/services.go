package port

import (
	"context"
	"io"
	"time"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// EmailMessage is a transactional email to a single recipient.
type EmailMessage struct {
	To        string
	Subject   string
	PlainText string
	HTML      string
}

// EmailSender delivers transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// ObjectStorage stores and serves uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// QuizGenerator produces practice quizzes and free-form answers from a
// topic description.
type QuizGenerator interface {
	Generate(ctx context.Context, req domain.QuizRequest) ([]domain.QuizQuestion, error)
	Answer(ctx context.Context, question string) (string, error)
}

// EventPublisher emits domain events to the message bus. Publishing is fire
// and forget; failures are logged, never surfaced to the request path.
type EventPublisher interface {
	Publish(topic string, payload any)
	Close() error
}
