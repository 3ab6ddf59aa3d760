package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

// OutboxRepository persists the side-effect rows the dispatchers produce:
// tasks, outbound emails, and outbound chat messages.
type OutboxRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(db *sql.DB, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

func (r *OutboxRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate task ID: %w", err)
		}

		task.ID = id.String()
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tasks (id, title, deal_id, patient_id, assignee_id, enrollment_id, status, due_at, scheduled_at, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.DealID,
		task.PatientID,
		task.AssigneeID,
		task.EnrollmentID,
		string(task.Status),
		task.DueAt,
		task.ScheduledAt,
		task.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("CreateTask", task.ID, err)
	}

	return nil
}

// TaskCountSince counts tasks created at or after the given instant, across
// all deals. Feeds the round-robin assignment rotation.
func (r *OutboxRepository) TaskCountSince(ctx context.Context, since time.Time) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE created_at >= $1", since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return count, nil
}

func (r *OutboxRepository) DueScheduledTasks(ctx context.Context, now time.Time) ([]*models.Task, error) {
	query := `
		SELECT id, title, COALESCE(deal_id::text, ''), COALESCE(patient_id::text, ''),
		       COALESCE(assignee_id::text, ''), COALESCE(enrollment_id::text, ''),
		       status, due_at, scheduled_at, created_at
		FROM tasks
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		task := &models.Task{}

		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.DealID,
			&task.PatientID,
			&task.AssigneeID,
			&task.EnrollmentID,
			&task.Status,
			&task.DueAt,
			&task.ScheduledAt,
			&task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *OutboxRepository) ReleaseTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = 'open' WHERE id = $1", id)
	if err != nil {
		return persistence.NewStoreError("ReleaseTask", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewStoreError("ReleaseTask", id, persistence.ErrTaskNotFound)
	}

	return nil
}

func (r *OutboxRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate message ID: %w", err)
		}

		message.ID = id.String()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (id, patient_id, enrollment_id, from_address, to_address, subject, html_body, reply_alias, status, scheduled_at, sent_at, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.PatientID,
		message.EnrollmentID,
		message.FromAddress,
		message.ToAddress,
		message.Subject,
		message.HTMLBody,
		message.ReplyAlias,
		string(message.Status),
		message.ScheduledAt,
		message.SentAt,
		message.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("CreateMessage", message.ID, err)
	}

	return nil
}

func (r *OutboxRepository) MessageTemplateByID(ctx context.Context, id string) (*models.MessageTemplate, error) {
	template := &models.MessageTemplate{}

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, subject, content FROM message_templates WHERE id = $1", id).
		Scan(&template.ID, &template.Name, &template.Subject, &template.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("MessageTemplateByID", id, persistence.ErrTemplateNotFound)
		}

		return nil, fmt.Errorf("failed to scan message template: %w", err)
	}

	return template, nil
}

func (r *OutboxRepository) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate chat message ID: %w", err)
		}

		message.ID = id.String()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_messages (id, patient_id, enrollment_id, to_number, body, status, external_id, scheduled_at, sent_at, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.PatientID,
		message.EnrollmentID,
		message.ToNumber,
		message.Body,
		string(message.Status),
		message.ExternalID,
		message.ScheduledAt,
		message.SentAt,
		message.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("CreateChatMessage", message.ID, err)
	}

	return nil
}

func (r *OutboxRepository) UpdateChatMessageStatus(ctx context.Context, id string, status models.ChatMessageStatus, externalID string, sentAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE chat_messages SET status = $2, external_id = $3, sent_at = $4 WHERE id = $1",
		id, string(status), externalID, sentAt)
	if err != nil {
		return persistence.NewStoreError("UpdateChatMessageStatus", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewStoreError("UpdateChatMessageStatus", id, persistence.ErrChatMessageNotFound)
	}

	return nil
}

func (r *OutboxRepository) DueScheduledChatMessages(ctx context.Context, now time.Time) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, COALESCE(patient_id::text, ''), COALESCE(enrollment_id::text, ''),
		       to_number, body, status, external_id, scheduled_at, sent_at, created_at
		FROM chat_messages
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due chat messages: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	messages := make([]*models.ChatMessage, 0)

	for rows.Next() {
		message := &models.ChatMessage{}

		err := rows.Scan(
			&message.ID,
			&message.PatientID,
			&message.EnrollmentID,
			&message.ToNumber,
			&message.Body,
			&message.Status,
			&message.ExternalID,
			&message.ScheduledAt,
			&message.SentAt,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}
