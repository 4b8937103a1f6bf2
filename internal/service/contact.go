package service

import (
	"context"
	"log/slog"

	"github.com/hemloft/storefront/internal/domain"
	"github.com/hemloft/storefront/internal/relay"
	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/validator"
)

// SendMessageInput is the contact form payload.
type SendMessageInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService relays contact-form messages to the backend endpoint.
type ContactService struct {
	sender relay.Sender
	logger *slog.Logger
}

// NewContactService creates a contact service.
func NewContactService(sender relay.Sender, logger *slog.Logger) *ContactService {
	return &ContactService{
		sender: sender,
		logger: logger,
	}
}

// SendMessage validates and relays one message. There are no retries; the
// shopper sees a single success or failure notification.
func (s *ContactService) SendMessage(ctx context.Context, input SendMessageInput) error {
	if err := validator.Validate(input); err != nil {
		return err
	}

	msg := &domain.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Message: input.Message,
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "contact message relay failed",
			slog.String("email", input.Email),
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("could not send your message, please try again later")
	}

	s.logger.InfoContext(ctx, "contact message relayed",
		slog.String("email", input.Email),
	)

	return nil
}
