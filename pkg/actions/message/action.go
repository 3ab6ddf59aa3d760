// Package message provides the send_message (email) automation action.
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/providers/mail"
	"github.com/praxisflow/praxisflow/pkg/template"
)

// Recipient discriminator values.
const (
	RecipientSpecificUser  = "specific_user"
	RecipientSpecificEmail = "specific_email"
	RecipientAssignedUser  = "assigned_user"
)

const contentTypeCustom = "custom"

// Fallback content used when neither a stored template nor an inline body is
// configured.
const (
	fallbackSubject = "An update on your treatment"
	fallbackBody    = "Hello {{patient.first_name}},\n\n" +
		"There is news about your treatment: {{deal.title}} is now at {{to_stage}}.\n\n" +
		"Your clinic team"
)

// Action sends a transactional email to the resolved recipient. The outbound
// row and its audit step are written before delivery is attempted; a provider
// failure is logged but does not revert them.
type Action struct {
	TemplateID    string
	BodyTemplate  string
	ContentType   string
	Subject       string
	RecipientType string
	RecipientID   string
	RecipientAddr string
	Schedule      models.Schedule
	rawConfig     map[string]any

	persistence persistence.Persistence
	recorder    *automation.Recorder
	sender      mail.Sender
	mailConfig  config.MailConfig
}

// NewAction builds a send_message action from its configuration.
func NewAction(cfg map[string]any, p persistence.Persistence, recorder *automation.Recorder, sender mail.Sender, mailConfig config.MailConfig) *Action {
	templateID, _ := cfg["template_id"].(string)
	bodyTemplate, _ := cfg["body_template"].(string)
	contentType, _ := cfg["content_type"].(string)
	subject, _ := cfg["subject"].(string)
	recipientType, _ := cfg["recipient_type"].(string)
	recipientID, _ := cfg["recipient_user_id"].(string)
	recipientAddr, _ := cfg["recipient_email"].(string)

	return &Action{
		TemplateID:    templateID,
		BodyTemplate:  bodyTemplate,
		ContentType:   contentType,
		Subject:       subject,
		RecipientType: recipientType,
		RecipientID:   recipientID,
		RecipientAddr: recipientAddr,
		Schedule:      models.ScheduleFromConfig(cfg),
		rawConfig:     cfg,
		persistence:   p,
		recorder:      recorder,
		sender:        sender,
		mailConfig:    mailConfig,
	}
}

// Execute resolves recipient and content, then persists and delivers one
// message per scheduled occurrence. An unresolvable recipient records a
// skipped step instead of silently dropping the action.
func (a *Action) Execute(ctx context.Context, run models.RunContext, logger *slog.Logger) error {
	logger = logger.With("module", "send_message_action")

	recipient, err := a.resolveRecipient(ctx, run)
	if err != nil {
		a.recorder.Failed(ctx, run, models.ActionSendMessage, a.rawConfig, err)

		return err
	}

	if recipient == "" {
		logger.InfoContext(ctx, "No recipient resolvable, skipping email", "deal_id", run.Deal.ID)

		a.recorder.Skipped(ctx, run, models.ActionSendMessage, a.rawConfig, "no recipient resolvable")

		return nil
	}

	subject, htmlBody, err := a.resolveContent(ctx, run)
	if err != nil {
		a.recorder.Failed(ctx, run, models.ActionSendMessage, a.rawConfig, err)

		return err
	}

	now := time.Now().UTC()

	var lastErr error

	for _, occurrence := range a.Schedule.Occurrences(now) {
		if err := a.deliver(ctx, run, recipient, subject, htmlBody, occurrence, now, logger); err != nil {
			a.recorder.Failed(ctx, run, models.ActionSendMessage, a.rawConfig, err)

			lastErr = err
		}
	}

	return lastErr
}

func (a *Action) resolveRecipient(ctx context.Context, run models.RunContext) (string, error) {
	switch a.RecipientType {
	case RecipientSpecificUser:
		if a.RecipientID == "" {
			return "", nil
		}

		users, err := a.persistence.UsersByIDs(ctx, []string{a.RecipientID})
		if err != nil {
			return "", fmt.Errorf("loading recipient user: %w", err)
		}

		if len(users) == 0 {
			return "", nil
		}

		return users[0].Email, nil
	case RecipientSpecificEmail:
		return a.RecipientAddr, nil
	case RecipientAssignedUser:
		// Deals carry no assignment today; fall back to the patient.
		return run.Patient.Email, nil
	default:
		return run.Patient.Email, nil
	}
}

// resolveContent picks the body in priority order: stored template, inline
// custom body, hard-coded fallback. The fallback and inline bodies are plain
// text and go through the line-break markup helper.
func (a *Action) resolveContent(ctx context.Context, run models.RunContext) (subject, htmlBody string, err error) {
	data := run.TemplateData()
	subject = a.Subject

	switch {
	case a.TemplateID != "":
		stored, err := a.persistence.MessageTemplateByID(ctx, a.TemplateID)
		if err != nil {
			return "", "", fmt.Errorf("loading message template: %w", err)
		}

		htmlBody = template.Render(stored.Content, data)
		if subject == "" {
			subject = stored.Subject
		}
	case a.ContentType == contentTypeCustom && a.BodyTemplate != "":
		htmlBody = template.HTMLFromText(template.Render(a.BodyTemplate, data))
	default:
		htmlBody = template.HTMLFromText(template.Render(fallbackBody, data))
	}

	if subject == "" {
		subject = fallbackSubject
	}

	return template.Render(subject, data), htmlBody, nil
}

func (a *Action) deliver(ctx context.Context, run models.RunContext, recipient, subject, htmlBody string, occurrence, now time.Time, logger *slog.Logger) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	msg := &models.Message{
		ID:           id.String(),
		PatientID:    run.Patient.ID,
		EnrollmentID: run.EnrollmentID,
		FromAddress:  a.mailConfig.FromAddress,
		ToAddress:    recipient,
		Subject:      subject,
		HTMLBody:     htmlBody,
		ReplyAlias:   fmt.Sprintf("reply+%s@%s", id.String(), a.mailConfig.ReplyDomain),
		Status:       models.MessageStatusQueued,
		CreatedAt:    now,
	}

	var deliverAt *time.Time

	if occurrence.After(now) {
		msg.Status = models.MessageStatusScheduled
		scheduledAt := occurrence
		msg.ScheduledAt = &scheduledAt
		deliverAt = &scheduledAt
	}

	if err := a.persistence.CreateMessage(ctx, msg); err != nil {
		return err
	}

	// The step is recorded at persistence time; delivery runs after and its
	// failure does not revert the row.
	a.recorder.Completed(ctx, run, models.ActionSendMessage, a.rawConfig, map[string]any{
		"message_id": msg.ID,
		"to":         recipient,
		"status":     string(msg.Status),
	})

	email := mail.Email{
		From:      msg.FromAddress,
		To:        msg.ToAddress,
		Subject:   msg.Subject,
		HTMLBody:  msg.HTMLBody,
		ReplyTo:   msg.ReplyAlias,
		DeliverAt: deliverAt,
	}

	if err := a.sender.Send(ctx, email); err != nil {
		logger.ErrorContext(ctx, "Email delivery failed after persistence",
			"message_id", msg.ID,
			"error", err)
	}

	return nil
}
