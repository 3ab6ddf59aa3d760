package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	"github.com/robfig/cron/v3"
)

// Scheduler periodically releases tasks whose scheduled time has passed and
// delivers chat messages that were persisted with a future send time.
type Scheduler struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	chatSender  chat.Sender
	cron        *cron.Cron
}

func NewScheduler(logger *slog.Logger, p persistence.Persistence, chatSender chat.Sender) *Scheduler {
	return &Scheduler{
		logger:      logger,
		persistence: p,
		chatSender:  chatSender,
	}
}

func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "cron", spec)

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep runs one dispatch cycle. Failures on individual rows are logged and
// skipped so a single bad record cannot stall the rest of the batch.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	s.releaseDueTasks(ctx, now)
	s.sendDueChatMessages(ctx, now)
}

func (s *Scheduler) releaseDueTasks(ctx context.Context, now time.Time) {
	tasks, err := s.persistence.DueScheduledTasks(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load due scheduled tasks", "error", err)
		return
	}

	for _, task := range tasks {
		if err := s.persistence.ReleaseTask(ctx, task.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to release scheduled task",
				"task_id", task.ID, "error", err)
			continue
		}

		s.logger.InfoContext(ctx, "Released scheduled task",
			"task_id", task.ID, "title", task.Title)
	}
}

func (s *Scheduler) sendDueChatMessages(ctx context.Context, now time.Time) {
	messages, err := s.persistence.DueScheduledChatMessages(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load due chat messages", "error", err)
		return
	}

	for _, message := range messages {
		externalID, err := s.chatSender.Send(ctx, chat.OutboundMessage{
			PatientID: message.PatientID,
			ToNumber:  message.ToNumber,
			Message:   message.Body,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to deliver scheduled chat message",
				"chat_message_id", message.ID, "error", err)

			if updateErr := s.persistence.UpdateChatMessageStatus(ctx, message.ID,
				models.ChatMessageStatusFailed, "", nil); updateErr != nil {
				s.logger.ErrorContext(ctx, "Failed to mark chat message as failed",
					"chat_message_id", message.ID, "error", updateErr)
			}

			continue
		}

		sentAt := time.Now().UTC()
		if err := s.persistence.UpdateChatMessageStatus(ctx, message.ID,
			models.ChatMessageStatusSent, externalID, &sentAt); err != nil {
			s.logger.ErrorContext(ctx, "Failed to mark chat message as sent",
				"chat_message_id", message.ID, "error", err)
			continue
		}

		s.logger.InfoContext(ctx, "Delivered scheduled chat message",
			"chat_message_id", message.ID, "external_id", externalID)
	}
}
