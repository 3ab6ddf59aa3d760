// Package config provides configuration loading for delivery providers.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProvidersConfig holds the outbound delivery provider settings loaded from
// the providers.yaml file.
type ProvidersConfig struct {
	Mail MailConfig `yaml:"mail"`
	Chat ChatConfig `yaml:"chat"`
}

// MailConfig configures the transactional email provider.
type MailConfig struct {
	Endpoint    string `yaml:"endpoint"`
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	ReplyDomain string `yaml:"reply_domain"`
}

// ChatConfig configures the chat messaging provider.
type ChatConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// LoadProvidersConfig loads provider configuration from a YAML file.
func LoadProvidersConfig(filepath string) (ProvidersConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return ProvidersConfig{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var config ProvidersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return ProvidersConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	applyProviderDefaults(&config)

	return config, nil
}

// LoadProvidersConfigOrDefault attempts to load provider config from file,
// falling back to defaults if the file doesn't exist.
func LoadProvidersConfigOrDefault(filepath string) ProvidersConfig {
	config, err := LoadProvidersConfig(filepath)
	if err != nil {
		config = ProvidersConfig{}
		applyProviderDefaults(&config)
	}

	return config
}

func applyProviderDefaults(config *ProvidersConfig) {
	if config.Mail.FromAddress == "" {
		config.Mail.FromAddress = "care@praxisflow.app"
	}

	if config.Mail.ReplyDomain == "" {
		config.Mail.ReplyDomain = "reply.praxisflow.app"
	}
}

// ValidateProvidersConfig checks the settings delivery clients depend on.
func ValidateProvidersConfig(config ProvidersConfig) error {
	if config.Mail.Endpoint == "" {
		return fmt.Errorf("mail.endpoint is required")
	}

	if config.Mail.FromAddress == "" {
		return fmt.Errorf("mail.from_address is required")
	}

	if config.Chat.Endpoint == "" {
		return fmt.Errorf("chat.endpoint is required")
	}

	return nil
}
