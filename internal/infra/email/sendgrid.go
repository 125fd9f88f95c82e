// Package email delivers transactional mail through SendGrid.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/logger"
)

var (
	// ErrNoCredentials is returned when no API key is configured.
	ErrNoCredentials = errors.New("email credentials are not configured")
	// ErrInvalidRecipient is returned when the provider rejects the address.
	ErrInvalidRecipient = errors.New("recipient address rejected")
	// ErrSendFailed is returned for any other delivery failure.
	ErrSendFailed = errors.New("email delivery failed")
)

// SendGridSender sends mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewSendGridSender(cfg config.EmailSettings, log *zap.Logger) *SendGridSender {
	s := &SendGridSender{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		timeout:   cfg.SendTimeout,
		logger:    log,
	}
	if cfg.SendGridAPIKey != "" {
		s.client = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	return s
}

// Send delivers a single message. Provider failures are classified so
// callers can decide what to surface to the user.
func (s *SendGridSender) Send(ctx context.Context, msg port.EmailMessage) error {
	if s.client == nil {
		return ErrNoCredentials
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		s.logger.Warn("sendgrid rejected recipient",
			zap.String("to", logger.MaskEmail(msg.To)),
			zap.Int("status", resp.StatusCode),
		)
		return ErrInvalidRecipient
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.logger.Error("sendgrid rejected credentials", zap.Int("status", resp.StatusCode))
		return ErrNoCredentials
	default:
		s.logger.Error("sendgrid delivery failed",
			zap.String("to", logger.MaskEmail(msg.To)),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}
}
