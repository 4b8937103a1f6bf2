package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
)

type stubSender struct {
	sent []*domain.ContactMessage
	err  error
}

func (s *stubSender) Send(_ context.Context, msg *domain.ContactMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendMessage(t *testing.T) {
	sender := &stubSender{}
	svc := NewContactService(sender, newTestLogger())

	err := svc.SendMessage(context.Background(), SendMessageInput{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "When does the oak table restock?",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@example.com", sender.sent[0].Email)
}

func TestSendMessage_Invalid(t *testing.T) {
	svc := NewContactService(&stubSender{}, newTestLogger())

	tests := []struct {
		name  string
		input SendMessageInput
	}{
		{"missing name", SendMessageInput{Email: "jane@example.com", Message: "hi"}},
		{"bad email", SendMessageInput{Name: "Jane", Email: "nope", Message: "hi"}},
		{"missing message", SendMessageInput{Name: "Jane", Email: "jane@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SendMessage(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestSendMessage_RelayFailure(t *testing.T) {
	sender := &stubSender{err: assert.AnError}
	svc := NewContactService(sender, newTestLogger())

	err := svc.SendMessage(context.Background(), SendMessageInput{
		Name:    "Jane",
		Email:   "jane@example.com",
		Message: "hi",
	})
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}
