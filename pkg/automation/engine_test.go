package automation_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/praxisflow/praxisflow/pkg/actions/chatmessage"
	"github.com/praxisflow/praxisflow/pkg/actions/message"
	"github.com/praxisflow/praxisflow/pkg/actions/task"
	"github.com/praxisflow/praxisflow/pkg/assign"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/cache"
	"github.com/praxisflow/praxisflow/pkg/config"
	"github.com/praxisflow/praxisflow/pkg/mocks"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/persistence/memory"
	"github.com/praxisflow/praxisflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type engineFixture struct {
	store      *memory.Store
	engine     *automation.Engine
	mailSender *mocks.MockMailSender
	chatSender *mocks.MockChatSender
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	logger := slog.Default()
	store := memory.NewStore()
	recorder := automation.NewRecorder(store, logger)
	picker := assign.NewPicker(store)
	mailSender := &mocks.MockMailSender{}
	chatSender := &mocks.MockChatSender{}

	mailConfig := config.MailConfig{
		FromAddress: "care@clinic.example",
		ReplyDomain: "reply.clinic.example",
	}

	reg := registry.NewRegistry(logger)
	reg.RegisterAction(task.NewActionFactory(store, recorder, picker))
	reg.RegisterAction(message.NewActionFactory(store, recorder, mailSender, mailConfig))
	reg.RegisterAction(chatmessage.NewActionFactory(store, recorder, chatSender))

	serviceNames := cache.NewServiceNames(nil, store, logger)
	engine := automation.NewEngine(store, reg, recorder, serviceNames, nil, nil, logger)

	return &engineFixture{
		store:      store,
		engine:     engine,
		mailSender: mailSender,
		chatSender: chatSender,
	}
}

func (f *engineFixture) seedDealAndPatient(phone, email string) {
	f.store.AddStage(&models.Stage{ID: "s0", Name: "Intake"})
	f.store.AddStage(&models.Stage{ID: "s1", Name: "Treatment"})
	f.store.AddService("svc-1", "Physiotherapy")
	f.store.AddPatient(&models.Patient{
		ID:        "p-1",
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     email,
		Phone:     phone,
	})
	f.store.AddDeal(&models.Deal{
		ID:        "d-1",
		Title:     "Knee rehabilitation",
		ServiceID: "svc-1",
		StageID:   "s1",
		PatientID: "p-1",
	})
}

func graphAutomation(id string, config models.AutomationConfig) *models.Automation {
	return &models.Automation{
		ID:          id,
		Name:        "automation " + id,
		TriggerType: models.TriggerDealStageChanged,
		Active:      true,
		Config:      config,
		CreatedAt:   time.Now().UTC(),
	}
}

func actionNode(actionType models.ActionType, config map[string]any) models.GraphNode {
	return models.GraphNode{
		Type: models.NodeTypeAction,
		Data: models.NodeData{ActionType: actionType, Config: config},
	}
}

func TestHandleEventValidation(t *testing.T) {
	f := newEngineFixture(t)

	tests := []struct {
		name  string
		event models.StageEvent
	}{
		{"missing deal id", models.StageEvent{PatientID: "p-1", ToStageID: "s1"}},
		{"missing patient id", models.StageEvent{DealID: "d-1", ToStageID: "s1"}},
		{"missing to stage id", models.StageEvent{DealID: "d-1", PatientID: "p-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.HandleEvent(context.Background(), tt.event)
			require.Error(t, err)
			assert.ErrorIs(t, err, automation.ErrInvalidEvent)
		})
	}
}

func TestHandleEventDealNotFound(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:    "missing",
		PatientID: "p-1",
		ToStageID: "s1",
	})
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestHandleEventNoMatches(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")
	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{ToStageID: "s9"}))

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchedAutomationCount)
	assert.Equal(t, 0, summary.ActionsRun)
}

func TestHandleEventChatMessageRun(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			{
				Type: models.NodeTypeCondition,
				Data: models.NodeData{
					Field:          "deal.service",
					SelectedValues: []string{"Physiotherapy"},
					MatchMode:      "includes",
				},
			},
			actionNode(models.ActionSendChatMessage, map[string]any{
				"message_template": "Hi {{patient.first_name}}, you moved to {{to_stage}}.",
			}),
		},
	}))

	f.chatSender.On("Send", mock.Anything, mock.Anything).Return("ext-1", nil)

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedAutomationCount)
	assert.Equal(t, 1, summary.ActionsRun)

	chatMessages := f.store.AllChatMessages()
	require.Len(t, chatMessages, 1)
	assert.Equal(t, "Hi Ana, you moved to Treatment.", chatMessages[0].Body)
	assert.Equal(t, models.ChatMessageStatusSent, chatMessages[0].Status)
	assert.Equal(t, "ext-1", chatMessages[0].ExternalID)

	enrollments, err := f.store.EnrollmentsByAutomation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, models.EnrollmentStatusActive, enrollments[0].Status)
	assert.Equal(t, "d-1", enrollments[0].DealID)

	steps, err := f.store.StepsByEnrollment(context.Background(), enrollments[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusCompleted, steps[0].Status)
	assert.Equal(t, models.ActionSendChatMessage, steps[0].StepAction)

	f.chatSender.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleEventConditionExcludes(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			{
				Type: models.NodeTypeCondition,
				Data: models.NodeData{
					Field:          "deal.service",
					SelectedValues: []string{"Physiotherapy"},
					MatchMode:      "excludes",
				},
			},
			actionNode(models.ActionSendChatMessage, map[string]any{"message_template": "hi"}),
		},
	}))

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MatchedAutomationCount)
	f.chatSender.AssertNotCalled(t, "Send")
}

func TestEmailNoRecipientRecordsSkippedStep(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			actionNode(models.ActionSendMessage, map[string]any{"subject": "Hello"}),
		},
	}))

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchedAutomationCount)
	assert.Equal(t, 1, summary.ActionsRun)
	assert.Empty(t, f.store.AllMessages())

	enrollments, err := f.store.EnrollmentsByAutomation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)

	steps, err := f.store.StepsByEnrollment(context.Background(), enrollments[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusSkipped, steps[0].Status)

	f.mailSender.AssertNotCalled(t, "Send")
}

func TestChatNoPhoneRecordsSkippedStep(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("", "ana@example.com")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			actionNode(models.ActionSendChatMessage, map[string]any{"message_template": "hi"}),
		},
	}))

	_, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)

	enrollments, err := f.store.EnrollmentsByAutomation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)

	steps, err := f.store.StepsByEnrollment(context.Background(), enrollments[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusSkipped, steps[0].Status)
	assert.Empty(t, f.store.AllChatMessages())
}

func TestRecurringMessagesProduceOneRowPerOccurrence(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			actionNode(models.ActionSendMessage, map[string]any{
				"subject":         "Check-in",
				"send_mode":       "recurring",
				"recurring_days":  float64(7),
				"recurring_times": float64(3),
			}),
		},
	}))

	f.mailSender.On("Send", mock.Anything, mock.Anything).Return(nil)

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ActionsRun)

	messages := f.store.AllMessages()
	require.Len(t, messages, 3)

	assert.Equal(t, models.MessageStatusQueued, messages[0].Status)
	assert.Nil(t, messages[0].ScheduledAt)

	for i, msg := range messages[1:] {
		require.NotNil(t, msg.ScheduledAt)
		assert.Equal(t, models.MessageStatusScheduled, msg.Status)

		wantDay := time.Now().UTC().AddDate(0, 0, (i+1)*7)
		assert.WithinDuration(t, wantDay, *msg.ScheduledAt, time.Minute)
	}

	enrollments, err := f.store.EnrollmentsByAutomation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)

	steps, err := f.store.StepsByEnrollment(context.Background(), enrollments[0].ID)
	require.NoError(t, err)
	assert.Len(t, steps, 3)

	f.mailSender.AssertNumberOfCalls(t, "Send", 3)
}

func TestTaskRoundRobinAssignment(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")
	f.store.AddUser(&models.User{ID: "u-1", Name: "Ada"})
	f.store.AddUser(&models.User{ID: "u-2", Name: "Grace"})

	// Seven recent tasks advance the rotation to the second candidate.
	for range 7 {
		require.NoError(t, f.store.CreateTask(context.Background(), &models.Task{
			Title:     "existing",
			Status:    models.TaskStatusOpen,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}))
	}

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			actionNode(models.ActionCreateTask, map[string]any{
				"title":        "Call {{patient.first_name}}",
				"assignee_ids": []any{"u-1", "u-2"},
			}),
		},
	}))

	_, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)

	var created *models.Task

	for _, task := range f.store.AllTasks() {
		if task.Title == "Call Ana" {
			created = task
		}
	}

	require.NotNil(t, created)
	assert.Equal(t, "u-2", created.AssigneeID)
	assert.Equal(t, models.TaskStatusOpen, created.Status)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 1), created.DueAt, time.Minute)
}

func TestInvalidActionConfigRecordsFailedStepAndContinues(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")

	f.store.AddAutomation(graphAutomation("a-1", models.AutomationConfig{
		ToStageID: "s1",
		Nodes: []models.GraphNode{
			// Missing the required message_template; registry rejects it.
			actionNode(models.ActionSendChatMessage, map[string]any{}),
			actionNode(models.ActionCreateTask, map[string]any{"title": "Follow up"}),
		},
	}))

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ActionsRun)

	enrollments, err := f.store.EnrollmentsByAutomation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)

	steps, err := f.store.StepsByEnrollment(context.Background(), enrollments[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, models.StepStatusFailed, steps[0].Status)
	assert.Equal(t, models.StepStatusCompleted, steps[1].Status)

	require.Len(t, f.store.AllTasks(), 1)
}

func TestLegacyActionsRunWhenGraphHasNone(t *testing.T) {
	f := newEngineFixture(t)
	f.seedDealAndPatient("+15551234567", "ana@example.com")

	a := graphAutomation("a-1", models.AutomationConfig{ToStageID: "s1"})
	a.LegacyActions = []models.ActionItem{
		{Type: models.ActionCreateTask, Config: map[string]any{"title": "Second"}, SortKey: 2},
		{Type: models.ActionCreateTask, Config: map[string]any{"title": "First"}, SortKey: 1},
	}
	f.store.AddAutomation(a)

	summary, err := f.engine.HandleEvent(context.Background(), models.StageEvent{
		DealID:      "d-1",
		PatientID:   "p-1",
		FromStageID: strPtr("s0"),
		ToStageID:   "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ActionsRun)

	titles := make([]string, 0, 2)
	for _, task := range f.store.AllTasks() {
		titles = append(titles, task.Title)
	}

	assert.ElementsMatch(t, []string{"First", "Second"}, titles)
}
