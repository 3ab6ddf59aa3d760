package message

import (
	"context"

	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/protocol"
	"github.com/praxisflow/praxisflow/pkg/providers/mail"
)

// ActionFactory builds send_message actions.
type ActionFactory struct {
	persistence persistence.Persistence
	recorder    *automation.Recorder
	sender      mail.Sender
	mailConfig  config.MailConfig
}

func NewActionFactory(p persistence.Persistence, recorder *automation.Recorder, sender mail.Sender, mailConfig config.MailConfig) *ActionFactory {
	return &ActionFactory{
		persistence: p,
		recorder:    recorder,
		sender:      sender,
		mailConfig:  mailConfig,
	}
}

func (*ActionFactory) Type() models.ActionType {
	return models.ActionSendMessage
}

func (f *ActionFactory) Create(_ context.Context, cfg map[string]any) (protocol.Action, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}

	return NewAction(cfg, f.persistence, f.recorder, f.sender, f.mailConfig), nil
}

// Schema returns the JSON schema for the action configuration.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template_id": map[string]any{
				"type":        "string",
				"description": "ID of a stored message template; takes precedence over the inline body",
			},
			"body_template": map[string]any{
				"type":        "string",
				"description": "Inline plain-text body, used when content_type is custom",
			},
			"content_type": map[string]any{
				"type": "string",
				"enum": []string{contentTypeCustom, "template"},
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line. Supports {{dotted.path}} placeholders.",
			},
			"recipient_type": map[string]any{
				"type":    "string",
				"default": "patient",
				"enum": []string{
					RecipientSpecificUser,
					RecipientSpecificEmail,
					RecipientAssignedUser,
					"patient",
				},
			},
			"recipient_user_id": map[string]any{"type": "string"},
			"recipient_email":   map[string]any{"type": "string"},
			"send_mode": map[string]any{
				"type":    "string",
				"default": string(models.SendModeImmediate),
				"enum": []string{
					string(models.SendModeImmediate),
					string(models.SendModeDelay),
					string(models.SendModeRecurring),
				},
			},
			"delay_days":           map[string]any{"type": "integer", "minimum": 0},
			"recurring_every_days": map[string]any{"type": "integer", "minimum": 1},
			"recurring_times": map[string]any{
				"type":        "integer",
				"description": "Occurrence count; values above the provider cap are clamped",
				"minimum":     1,
			},
		},
	}
}
