package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var received Email

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(config.MailConfig{Endpoint: server.URL, APIKey: "test-key"}, slog.Default())

	err := client.Send(context.Background(), Email{
		From:     "care@clinic.example",
		To:       "pat@example.com",
		Subject:  "Welcome",
		HTMLBody: "<p>Hi</p>",
		ReplyTo:  "reply+abc@reply.clinic.example",
	})
	require.NoError(t, err)

	assert.Equal(t, "pat@example.com", received.To)
	assert.Equal(t, "reply+abc@reply.clinic.example", received.ReplyTo)
	assert.Nil(t, received.DeliverAt)
}

func TestClientSendProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(config.MailConfig{Endpoint: server.URL}, slog.Default())

	err := client.Send(context.Background(), Email{To: "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMailDeliveryFailed)
}
