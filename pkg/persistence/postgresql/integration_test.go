package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{
		"enrollment_steps", "enrollments", "automation_actions", "automations",
		"tasks", "messages", "message_templates", "chat_messages",
		"deals", "patients", "stages", "services", "users", "schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("praxisflow_test"),
			postgres.WithUsername("praxisflow"),
			postgres.WithPassword("praxisflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	persistence, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)
		require.NoError(t, persistence.Close(ctx))
		cancel()
	})

	return persistence, ctx
}

func seedEntities(ctx context.Context, t *testing.T, p *postgresql.Persistence) (dealID, patientID string) {
	t.Helper()

	db, err := sql.Open("postgres", mustConnectionString(ctx, t))
	require.NoError(t, err)

	defer func() { require.NoError(t, db.Close()) }()

	patientID = uuid.NewString()
	_, err = db.ExecContext(ctx,
		"INSERT INTO patients (id, first_name, last_name, email, phone) VALUES ($1, 'Ana', 'Keller', 'ana@example.ch', '+41791234567')",
		patientID)
	require.NoError(t, err)

	dealID = uuid.NewString()
	_, err = db.ExecContext(ctx,
		"INSERT INTO deals (id, title, category, patient_id) VALUES ($1, 'Physio intake', 'intake', $2)",
		dealID, patientID)
	require.NoError(t, err)

	return dealID, patientID
}

func mustConnectionString(ctx context.Context, t *testing.T) string {
	t.Helper()

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return databaseURL
}

func TestPersistenceIntegration_EntityReads(t *testing.T) {
	p, ctx := setupTestDB(t)

	dealID, patientID := seedEntities(ctx, t, p)

	deal, err := p.DealByID(ctx, dealID)
	require.NoError(t, err)
	assert.Equal(t, "Physio intake", deal.Title)
	assert.Equal(t, patientID, deal.PatientID)

	patient, err := p.PatientByID(ctx, patientID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", patient.FirstName)

	_, err = p.DealByID(ctx, uuid.NewString())
	assert.Error(t, err)
}

func TestPersistenceIntegration_EnrollmentAuditTrail(t *testing.T) {
	p, ctx := setupTestDB(t)

	dealID, patientID := seedEntities(ctx, t, p)

	enrollment := &models.Enrollment{
		AutomationID: uuid.NewString(),
		DealID:       dealID,
		PatientID:    patientID,
		Status:       models.EnrollmentStatusActive,
		Snapshot:     map[string]any{"to_stage_id": "s2"},
	}

	require.NoError(t, p.CreateEnrollment(ctx, enrollment))
	require.NotEmpty(t, enrollment.ID)

	step := &models.EnrollmentStep{
		EnrollmentID: enrollment.ID,
		StepType:     models.StepTypeAction,
		StepAction:   models.ActionSendMessage,
		StepConfig:   map[string]any{"send_mode": "immediate"},
		Status:       models.StepStatusCompleted,
		ExecutedAt:   time.Now().UTC(),
		Result:       map[string]any{"message_id": "m1"},
	}

	require.NoError(t, p.CreateEnrollmentStep(ctx, step))

	loaded, err := p.EnrollmentByID(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, loaded.Status)
	assert.Equal(t, "s2", loaded.Snapshot["to_stage_id"])

	steps, err := p.StepsByEnrollment(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.ActionSendMessage, steps[0].StepAction)
	assert.Equal(t, "m1", steps[0].Result["message_id"])
}

func TestPersistenceIntegration_AutomationConfigShapes(t *testing.T) {
	p, ctx := setupTestDB(t)

	db, err := sql.Open("postgres", mustConnectionString(ctx, t))
	require.NoError(t, err)

	defer func() { require.NoError(t, db.Close()) }()

	automationID := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO automations (id, name, trigger_type, active, config)
		VALUES ($1, 'Welcome flow', 'deal_stage_changed', TRUE,
			'{"to_stage_id":"s2","nodes":[{"type":"action","data":{"action_type":"send_message","config":{"send_mode":"immediate"}}}]}')
	`, automationID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO automation_actions (id, automation_id, action_type, config, sort_key)
		VALUES ($1, $2, 'create_task', '{"due_in_days": 2}', 1)
	`, uuid.NewString(), automationID)
	require.NoError(t, err)

	automations, err := p.ActiveAutomationsByTrigger(ctx, models.TriggerDealStageChanged)
	require.NoError(t, err)
	require.Len(t, automations, 1)

	automation := automations[0]
	assert.Equal(t, "s2", automation.Config.ToStageID)
	require.Len(t, automation.LegacyActions, 1)

	// Graph nodes win over the legacy row.
	actions := automation.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionSendMessage, actions[0].Type)
}

func TestPersistenceIntegration_ScheduledOutbox(t *testing.T) {
	p, ctx := setupTestDB(t)

	dealID, patientID := seedEntities(ctx, t, p)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	due := &models.ChatMessage{
		PatientID:   patientID,
		ToNumber:    "+41791234567",
		Body:        "due",
		Status:      models.ChatMessageStatusScheduled,
		ScheduledAt: &past,
	}
	notDue := &models.ChatMessage{
		PatientID:   patientID,
		ToNumber:    "+41791234567",
		Body:        "not due",
		Status:      models.ChatMessageStatusScheduled,
		ScheduledAt: &future,
	}

	require.NoError(t, p.CreateChatMessage(ctx, due))
	require.NoError(t, p.CreateChatMessage(ctx, notDue))

	dueMessages, err := p.DueScheduledChatMessages(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, dueMessages, 1)
	assert.Equal(t, "due", dueMessages[0].Body)

	sentAt := time.Now().UTC()
	require.NoError(t, p.UpdateChatMessageStatus(ctx, due.ID, models.ChatMessageStatusSent, "ext-1", &sentAt))

	task := &models.Task{
		Title:       "Call patient",
		DealID:      dealID,
		PatientID:   patientID,
		Status:      models.TaskStatusScheduled,
		DueAt:       future,
		ScheduledAt: &past,
	}
	require.NoError(t, p.CreateTask(ctx, task))

	dueTasks, err := p.DueScheduledTasks(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, dueTasks, 1)
	require.NoError(t, p.ReleaseTask(ctx, dueTasks[0].ID))

	count, err := p.TaskCountSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
