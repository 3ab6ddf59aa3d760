package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadProvidersConfig(t *testing.T) {
	path := writeConfigFile(t, `
mail:
  endpoint: https://mail.example.com/v1/send
  api_key: mail-key
  from_address: hello@clinic.example
  reply_domain: reply.clinic.example
chat:
  endpoint: https://chat.example.com/v1/messages
  api_key: chat-key
`)

	config, err := LoadProvidersConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com/v1/send", config.Mail.Endpoint)
	assert.Equal(t, "hello@clinic.example", config.Mail.FromAddress)
	assert.Equal(t, "reply.clinic.example", config.Mail.ReplyDomain)
	assert.Equal(t, "chat-key", config.Chat.APIKey)
}

func TestLoadProvidersConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mail:
  endpoint: https://mail.example.com/v1/send
chat:
  endpoint: https://chat.example.com/v1/messages
`)

	config, err := LoadProvidersConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "care@praxisflow.app", config.Mail.FromAddress)
	assert.Equal(t, "reply.praxisflow.app", config.Mail.ReplyDomain)
}

func TestLoadProvidersConfigOrDefault(t *testing.T) {
	config := LoadProvidersConfigOrDefault("/nonexistent/providers.yaml")

	assert.Equal(t, "care@praxisflow.app", config.Mail.FromAddress)
	assert.Empty(t, config.Mail.Endpoint)
}

func TestValidateProvidersConfig(t *testing.T) {
	valid := ProvidersConfig{
		Mail: MailConfig{Endpoint: "https://mail", FromAddress: "a@b"},
		Chat: ChatConfig{Endpoint: "https://chat"},
	}
	assert.NoError(t, ValidateProvidersConfig(valid))

	missingMail := valid
	missingMail.Mail.Endpoint = ""
	assert.Error(t, ValidateProvidersConfig(missingMail))

	missingChat := valid
	missingChat.Chat.Endpoint = ""
	assert.Error(t, ValidateProvidersConfig(missingChat))
}
