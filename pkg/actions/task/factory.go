package task

import (
	"context"

	"github.com/praxisflow/praxisflow/pkg/assign"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/protocol"
)

// ActionFactory builds create_task actions.
type ActionFactory struct {
	persistence persistence.Persistence
	recorder    *automation.Recorder
	picker      *assign.Picker
}

func NewActionFactory(p persistence.Persistence, recorder *automation.Recorder, picker *assign.Picker) *ActionFactory {
	return &ActionFactory{
		persistence: p,
		recorder:    recorder,
		picker:      picker,
	}
}

func (*ActionFactory) Type() models.ActionType {
	return models.ActionCreateTask
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	if config == nil {
		config = map[string]any{}
	}

	return NewAction(config, f.persistence, f.recorder, f.picker), nil
}

// Schema returns the JSON schema for the action configuration.
func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Task title. Supports {{dotted.path}} placeholders.",
				"examples": []string{
					"Call {{patient.first_name}} {{patient.last_name}}",
					"Prepare intake for {{deal.title}}",
				},
			},
			"due_in_days": map[string]any{
				"type":        "integer",
				"description": "Days from the occurrence until the task is due",
				"default":     defaultDueInDays,
				"minimum":     0,
			},
			"assignee_ids": map[string]any{
				"type":        "array",
				"description": "Candidate assignees; tasks rotate over them round-robin",
				"items":       map[string]any{"type": "string"},
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
		"required": []string{"title"},
	}
}
