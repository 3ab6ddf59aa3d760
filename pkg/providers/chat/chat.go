// Package chat delivers patient chat messages through the clinic's messaging
// provider HTTP API.
package chat

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

// ErrChatDeliveryFailed is returned when the provider rejects a send request.
var ErrChatDeliveryFailed = errors.New("chat delivery failed")

// OutboundMessage is a single chat message handed to the provider.
type OutboundMessage struct {
	PatientID string `json:"patient_id"`
	ToNumber  string `json:"to_number"`
	Message   string `json:"message"`
}

// Sender delivers chat messages and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, message OutboundMessage) (string, error)
}

// Client sends chat messages through the configured provider endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.ChatConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: defaultTimeoutSeconds * time.Second,
		},
		logger: logger.With("module", "chat_client"),
	}
}

func (c *Client) Send(ctx context.Context, message OutboundMessage) (string, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		c.logger.ErrorContext(ctx, "Chat provider rejected message",
			"status_code", resp.StatusCode,
			"patient_id", message.PatientID)

		return "", fmt.Errorf("%w: status %d: %s", ErrChatDeliveryFailed, resp.StatusCode, string(body))
	}

	var result struct {
		ID string `json:"id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.WarnContext(ctx, "Chat provider response had no message ID", "error", err)

		return "", nil
	}

	c.logger.InfoContext(ctx, "Chat message accepted by provider",
		"patient_id", message.PatientID,
		"external_id", result.ID)

	return result.ID, nil
}
