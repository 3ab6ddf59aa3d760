// Package chatmessage provides the send_chat_message automation action.
package chatmessage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	"github.com/praxisflow/praxisflow/pkg/template"
)

// Action sends a chat message to the patient's phone. Future occurrences are
// persisted as scheduled rows for the scheduler; immediate ones are delivered
// through the chat provider right away.
type Action struct {
	MessageTemplate string
	Schedule        models.Schedule
	rawConfig       map[string]any

	persistence persistence.Persistence
	recorder    *automation.Recorder
	sender      chat.Sender
}

// NewAction builds a send_chat_message action from its configuration.
func NewAction(config map[string]any, p persistence.Persistence, recorder *automation.Recorder, sender chat.Sender) *Action {
	messageTemplate, _ := config["message_template"].(string)

	return &Action{
		MessageTemplate: messageTemplate,
		Schedule:        models.ScheduleFromConfig(config),
		rawConfig:       config,
		persistence:     p,
		recorder:        recorder,
		sender:          sender,
	}
}

func (a *Action) Execute(ctx context.Context, run models.RunContext, logger *slog.Logger) error {
	logger = logger.With("module", "send_chat_message_action")

	if run.Patient.Phone == "" {
		logger.InfoContext(ctx, "Patient has no phone number, skipping chat message", "patient_id", run.Patient.ID)

		a.recorder.Skipped(ctx, run, models.ActionSendChatMessage, a.rawConfig, "patient has no phone number")

		return nil
	}

	body := template.Render(a.MessageTemplate, run.TemplateData())
	now := time.Now().UTC()

	var lastErr error

	for _, occurrence := range a.Schedule.Occurrences(now) {
		if err := a.deliver(ctx, run, body, occurrence, now, logger); err != nil {
			a.recorder.Failed(ctx, run, models.ActionSendChatMessage, a.rawConfig, err)

			lastErr = err
		}
	}

	return lastErr
}

func (a *Action) deliver(ctx context.Context, run models.RunContext, body string, occurrence, now time.Time, logger *slog.Logger) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	msg := &models.ChatMessage{
		ID:           id.String(),
		PatientID:    run.Patient.ID,
		EnrollmentID: run.EnrollmentID,
		ToNumber:     run.Patient.Phone,
		Body:         body,
		Status:       models.ChatMessageStatusPending,
		CreatedAt:    now,
	}

	if occurrence.After(now) {
		msg.Status = models.ChatMessageStatusScheduled
		scheduledAt := occurrence
		msg.ScheduledAt = &scheduledAt

		if err := a.persistence.CreateChatMessage(ctx, msg); err != nil {
			return err
		}

		a.recorder.Scheduled(ctx, run, models.ActionSendChatMessage, a.rawConfig, occurrence)

		return nil
	}

	if err := a.persistence.CreateChatMessage(ctx, msg); err != nil {
		return err
	}

	externalID, err := a.sender.Send(ctx, chat.OutboundMessage{
		PatientID: msg.PatientID,
		ToNumber:  msg.ToNumber,
		Message:   msg.Body,
	})
	if err != nil {
		if updateErr := a.persistence.UpdateChatMessageStatus(ctx, msg.ID, models.ChatMessageStatusFailed, "", nil); updateErr != nil {
			logger.ErrorContext(ctx, "Failed to mark chat message failed", "chat_message_id", msg.ID, "error", updateErr)
		}

		return err
	}

	sentAt := time.Now().UTC()
	if err := a.persistence.UpdateChatMessageStatus(ctx, msg.ID, models.ChatMessageStatusSent, externalID, &sentAt); err != nil {
		logger.ErrorContext(ctx, "Failed to mark chat message sent", "chat_message_id", msg.ID, "error", err)
	}

	a.recorder.Completed(ctx, run, models.ActionSendChatMessage, a.rawConfig, map[string]any{
		"chat_message_id": msg.ID,
		"external_id":     externalID,
	})

	return nil
}
