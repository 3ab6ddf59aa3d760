// Package postgresql provides the PostgreSQL persistence implementation for
// the automation engine.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	entities    *EntityRepository
	automations *AutomationRepository
	enrollments *EnrollmentRepository
	outbox      *OutboxRepository
}

// NewPersistence connects, runs migrations, and returns a ready persistence
// layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		entities:    NewEntityRepository(database, logger),
		automations: NewAutomationRepository(database, logger),
		enrollments: NewEnrollmentRepository(database, logger),
		outbox:      NewOutboxRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) DealByID(ctx context.Context, id string) (*models.Deal, error) {
	return p.entities.DealByID(ctx, id)
}

func (p *Persistence) PatientByID(ctx context.Context, id string) (*models.Patient, error) {
	return p.entities.PatientByID(ctx, id)
}

func (p *Persistence) StageByID(ctx context.Context, id string) (*models.Stage, error) {
	return p.entities.StageByID(ctx, id)
}

func (p *Persistence) ServiceNameByID(ctx context.Context, id string) (string, error) {
	return p.entities.ServiceNameByID(ctx, id)
}

func (p *Persistence) UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return p.entities.UsersByIDs(ctx, ids)
}

func (p *Persistence) Automations(ctx context.Context) ([]*models.Automation, error) {
	return p.automations.GetAll(ctx)
}

func (p *Persistence) ActiveAutomationsByTrigger(ctx context.Context, triggerType string) ([]*models.Automation, error) {
	return p.automations.GetActiveByTrigger(ctx, triggerType)
}

func (p *Persistence) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	return p.enrollments.CreateEnrollment(ctx, enrollment)
}

func (p *Persistence) CreateEnrollmentStep(ctx context.Context, step *models.EnrollmentStep) error {
	return p.enrollments.CreateStep(ctx, step)
}

func (p *Persistence) EnrollmentByID(ctx context.Context, id string) (*models.Enrollment, error) {
	return p.enrollments.GetByID(ctx, id)
}

func (p *Persistence) EnrollmentsByAutomation(ctx context.Context, automationID string) ([]*models.Enrollment, error) {
	return p.enrollments.GetByAutomation(ctx, automationID)
}

func (p *Persistence) StepsByEnrollment(ctx context.Context, enrollmentID string) ([]*models.EnrollmentStep, error) {
	return p.enrollments.StepsByEnrollment(ctx, enrollmentID)
}

func (p *Persistence) CreateTask(ctx context.Context, task *models.Task) error {
	return p.outbox.CreateTask(ctx, task)
}

func (p *Persistence) TaskCountSince(ctx context.Context, since time.Time) (int, error) {
	return p.outbox.TaskCountSince(ctx, since)
}

func (p *Persistence) DueScheduledTasks(ctx context.Context, now time.Time) ([]*models.Task, error) {
	return p.outbox.DueScheduledTasks(ctx, now)
}

func (p *Persistence) ReleaseTask(ctx context.Context, id string) error {
	return p.outbox.ReleaseTask(ctx, id)
}

func (p *Persistence) CreateMessage(ctx context.Context, message *models.Message) error {
	return p.outbox.CreateMessage(ctx, message)
}

func (p *Persistence) MessageTemplateByID(ctx context.Context, id string) (*models.MessageTemplate, error) {
	return p.outbox.MessageTemplateByID(ctx, id)
}

func (p *Persistence) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	return p.outbox.CreateChatMessage(ctx, message)
}

func (p *Persistence) UpdateChatMessageStatus(ctx context.Context, id string, status models.ChatMessageStatus, externalID string, sentAt *time.Time) error {
	return p.outbox.UpdateChatMessageStatus(ctx, id, status, externalID, sentAt)
}

func (p *Persistence) DueScheduledChatMessages(ctx context.Context, now time.Time) ([]*models.ChatMessage, error) {
	return p.outbox.DueScheduledChatMessages(ctx, now)
}
