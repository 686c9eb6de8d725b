// Package mail notifies the operations team by email when users submit
// scheduling or questionnaire forms.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	sendEndpoint   = "https://api.sendgrid.com/v3/mail/send"
	requestTimeout = time.Second * 10
)

// Notifier delivers operator notifications. Delivery failures are reported
// to the caller but never block the user-facing flow.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// SendGrid sends notifications through the SendGrid v3 mail API.
type SendGrid struct {
	httpClient *http.Client
	apiKey     string
	from       string
	to         string
	logger     *zap.Logger
}

func NewSendGrid(apiKey, from, to string, logger *zap.Logger) *SendGrid {
	return &SendGrid{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
		from:       from,
		to:         to,
		logger:     logger,
	}
}

func (s *SendGrid) Notify(ctx context.Context, subject, body string) error {
	type address struct {
		Email string `json:"email"`
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []address{{Email: s.to}}},
		},
		"from":    address{Email: s.from},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendEndpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Debug("sendgrid error response", zap.String("body", string(detail)))
		return fmt.Errorf("sendgrid bad status: %s", resp.Status)
	}

	return nil
}
