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
	"github.com/TheVish04/CAprep/internal/infra/logger"
)

// ErrInvalidSubmission is returned for a rejected contact form submission.
var ErrInvalidSubmission = errors.New("invalid contact submission")

// ContactService stores contact form submissions and forwards them to the
// support inbox.
type ContactService struct {
	contacts     port.ContactRepository
	sender       port.EmailSender
	supportEmail string
	logger       *zap.Logger
	now          func() time.Time
}

func NewContactService(contacts port.ContactRepository, sender port.EmailSender, supportEmail string, log *zap.Logger) *ContactService {
	return &ContactService{
		contacts:     contacts,
		sender:       sender,
		supportEmail: supportEmail,
		logger:       log,
		now:          time.Now,
	}
}

// WithClock overrides the service's time source. Test helper.
func (s *ContactService) WithClock(now func() time.Time) *ContactService {
	s.now = now
	return s
}

// Submit validates and stores a submission. Forwarding to the support inbox
// is best effort; the submission is kept even when the email bounces.
func (s *ContactService) Submit(ctx context.Context, submission *domain.ContactSubmission) error {
	if strings.TrimSpace(submission.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSubmission)
	}
	if !validEmail(normalizeEmail(submission.Email)) {
		return fmt.Errorf("%w: valid email is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(submission.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidSubmission)
	}

	submission.ID = uuid.NewString()
	submission.Email = normalizeEmail(submission.Email)
	submission.CreatedAt = s.now()

	if err := s.contacts.Create(ctx, submission); err != nil {
		return fmt.Errorf("store contact submission: %w", err)
	}

	if s.supportEmail != "" {
		msg := port.EmailMessage{
			To:      s.supportEmail,
			Subject: fmt.Sprintf("Contact form: %s", submission.Subject),
			PlainText: fmt.Sprintf(
				"From: %s <%s>\n\n%s", submission.Name, submission.Email, submission.Message,
			),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Warn("failed to forward contact submission",
				zap.String("submission_id", submission.ID),
				zap.String("email", logger.MaskEmail(submission.Email)),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("contact submission stored", zap.String("submission_id", submission.ID))
	return nil
}

func (s *ContactService) List(ctx context.Context, page, pageSize int) ([]domain.ContactSubmission, int, error) {
	submissions, total, err := s.contacts.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	return submissions, total, nil
}
