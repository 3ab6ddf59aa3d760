// Package mail delivers transactional email through the clinic's email
// provider HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/praxisflow/praxisflow/pkg/config"
)

const defaultTimeoutSeconds = 30

// ErrMailDeliveryFailed is returned when the provider rejects a send request.
var ErrMailDeliveryFailed = errors.New("mail delivery failed")

// Email is a single outbound message handed to the provider. DeliverAt, when
// set, asks the provider to hold the message until that time.
type Email struct {
	From      string     `json:"from"`
	To        string     `json:"to"`
	Subject   string     `json:"subject"`
	HTMLBody  string     `json:"html_body"`
	ReplyTo   string     `json:"reply_to,omitempty"`
	DeliverAt *time.Time `json:"deliver_at,omitempty"`
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Client sends email through the configured provider endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.MailConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: defaultTimeoutSeconds * time.Second,
		},
		logger: logger.With("module", "mail_client"),
	}
}

func (c *Client) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		c.logger.ErrorContext(ctx, "Mail provider rejected message",
			"status_code", resp.StatusCode,
			"to", email.To)

		return fmt.Errorf("%w: status %d: %s", ErrMailDeliveryFailed, resp.StatusCode, string(body))
	}

	c.logger.InfoContext(ctx, "Email accepted by provider", "to", email.To, "subject", email.Subject)

	return nil
}
