package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/httpclient"
)

// Sender forwards contact messages to the backend relay endpoint.
type Sender interface {
	Send(ctx context.Context, msg *domain.ContactMessage) error
}

// HTTPSender posts contact messages to an external relay over HTTP.
type HTTPSender struct {
	client   *httpclient.Client
	endpoint string
}

// NewHTTPSender creates an HTTP contact relay sender.
func NewHTTPSender(client *httpclient.Client, endpoint string) *HTTPSender {
	return &HTTPSender{
		client:   client,
		endpoint: endpoint,
	}
}

// Send posts the message. Fire-and-forget from the shopper's perspective; the
// handler reports success or failure once, with no retries beyond the
// client's own.
func (s *HTTPSender) Send(ctx context.Context, msg *domain.ContactMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal contact message: %w", err)
	}

	resp, err := s.client.Post(ctx, s.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return apperrors.ServiceUnavailable("contact relay unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "contact-relay")
	}

	return nil
}
