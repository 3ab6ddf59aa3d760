// Package persistence defines the datastore contract of the automation engine
// and the error types shared by its implementations.
package persistence

import (
	"context"
	"time"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// Persistence is the engine's view of the shared clinic datastore. The engine
// reads entities and automations and writes audit, task, and outbound message
// rows; everything else in the platform is out of its reach.
type Persistence interface {
	// Entity reads.
	DealByID(ctx context.Context, id string) (*models.Deal, error)
	PatientByID(ctx context.Context, id string) (*models.Patient, error)
	StageByID(ctx context.Context, id string) (*models.Stage, error)
	ServiceNameByID(ctx context.Context, id string) (string, error)
	UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// Automation configuration (read-only to the engine).
	Automations(ctx context.Context) ([]*models.Automation, error)
	ActiveAutomationsByTrigger(ctx context.Context, triggerType string) ([]*models.Automation, error)

	// Enrollment audit trail.
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	CreateEnrollmentStep(ctx context.Context, step *models.EnrollmentStep) error
	EnrollmentByID(ctx context.Context, id string) (*models.Enrollment, error)
	EnrollmentsByAutomation(ctx context.Context, automationID string) ([]*models.Enrollment, error)
	StepsByEnrollment(ctx context.Context, enrollmentID string) ([]*models.EnrollmentStep, error)

	// Tasks.
	CreateTask(ctx context.Context, task *models.Task) error
	TaskCountSince(ctx context.Context, since time.Time) (int, error)
	DueScheduledTasks(ctx context.Context, now time.Time) ([]*models.Task, error)
	ReleaseTask(ctx context.Context, id string) error

	// Outbound email.
	CreateMessage(ctx context.Context, message *models.Message) error
	MessageTemplateByID(ctx context.Context, id string) (*models.MessageTemplate, error)

	// Outbound chat.
	CreateChatMessage(ctx context.Context, message *models.ChatMessage) error
	UpdateChatMessageStatus(ctx context.Context, id string, status models.ChatMessageStatus, externalID string, sentAt *time.Time) error
	DueScheduledChatMessages(ctx context.Context, now time.Time) ([]*models.ChatMessage, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
