package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pix-service/internal/dtos"

	"github.com/go-resty/resty/v2"
)

// WebhookSink posts events to the CRM. Created and confirmed events go to
// separate flows; an empty URL disables that event type.
type WebhookSink struct {
	client          *resty.Client
	createdURL      string
	confirmationURL string
	logger          *slog.Logger
}

func NewWebhookSink(createdURL, confirmationURL string, timeout time.Duration, logger *slog.Logger) *WebhookSink {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &WebhookSink{
		client:          client,
		createdURL:      createdURL,
		confirmationURL: confirmationURL,
		logger:          logger,
	}
}

func (s *WebhookSink) Name() string {
	return "crm_webhook"
}

func (s *WebhookSink) Send(ctx context.Context, e dtos.ChargeEvent) error {
	url := s.createdURL
	if e.Type == dtos.EventChargeConfirmed {
		url = s.confirmationURL
	}
	if url == "" {
		s.logger.Warn("crm webhook url not configured, skipping", "event", e.Type, "transaction_id", e.TransactionID)
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(e).
		Post(url)
	if err != nil {
		return fmt.Errorf("posting %s to crm: %w", e.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("crm returned HTTP %d for %s: %s", resp.StatusCode(), e.Type, resp.String())
	}

	s.logger.Info("crm notified", "event", e.Type, "transaction_id", e.TransactionID, "status", resp.StatusCode())
	return nil
}
