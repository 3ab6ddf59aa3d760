package chatmessage

import (
	"context"

	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/protocol"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
)

// ActionFactory builds send_chat_message actions.
type ActionFactory struct {
	persistence persistence.Persistence
	recorder    *automation.Recorder
	sender      chat.Sender
}

func NewActionFactory(p persistence.Persistence, recorder *automation.Recorder, sender chat.Sender) *ActionFactory {
	return &ActionFactory{
		persistence: p,
		recorder:    recorder,
		sender:      sender,
	}
}

func (*ActionFactory) Type() models.ActionType {
	return models.ActionSendChatMessage
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	if config == nil {
		config = map[string]any{}
	}

	return NewAction(config, f.persistence, f.recorder, f.sender), nil
}

// Schema returns the JSON schema for the action configuration.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message_template": map[string]any{
				"type":        "string",
				"description": "Message body. Supports {{dotted.path}} placeholders.",
				"examples": []string{
					"Hi {{patient.first_name}}, your appointment moved to {{to_stage}}.",
				},
			},
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
		"required": []string{"message_template"},
	}
}
