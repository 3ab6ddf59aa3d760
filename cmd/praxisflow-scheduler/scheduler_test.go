package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxisflow/praxisflow/pkg/log"
	"github.com/praxisflow/praxisflow/pkg/mocks"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence/memory"
	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweepReleasesDueTasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	require.NoError(t, store.CreateTask(ctx, &models.Task{
		ID:          "t-due",
		Title:       "Call patient",
		Status:      models.TaskStatusScheduled,
		ScheduledAt: &past,
	}))
	require.NoError(t, store.CreateTask(ctx, &models.Task{
		ID:          "t-future",
		Title:       "Follow-up",
		Status:      models.TaskStatusScheduled,
		ScheduledAt: &future,
	}))

	chatSender := &mocks.MockChatSender{}
	scheduler := NewScheduler(log.WithModule("test"), store, chatSender)

	scheduler.Sweep(ctx)

	byID := make(map[string]*models.Task)
	for _, task := range store.AllTasks() {
		byID[task.ID] = task
	}

	assert.Equal(t, models.TaskStatusOpen, byID["t-due"].Status)
	assert.Equal(t, models.TaskStatusScheduled, byID["t-future"].Status)
}

func TestSweepDeliversDueChatMessages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	past := time.Now().UTC().Add(-time.Minute)

	require.NoError(t, store.CreateChatMessage(ctx, &models.ChatMessage{
		ID:          "cm-due",
		PatientID:   "p-1",
		ToNumber:    "+4915112345678",
		Body:        "Your appointment is tomorrow.",
		Status:      models.ChatMessageStatusScheduled,
		ScheduledAt: &past,
	}))

	chatSender := &mocks.MockChatSender{}
	chatSender.On("Send", mock.Anything, chat.OutboundMessage{
		PatientID: "p-1",
		ToNumber:  "+4915112345678",
		Message:   "Your appointment is tomorrow.",
	}).Return("ext-42", nil)

	scheduler := NewScheduler(log.WithModule("test"), store, chatSender)
	scheduler.Sweep(ctx)

	messages := store.AllChatMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.ChatMessageStatusSent, messages[0].Status)
	assert.Equal(t, "ext-42", messages[0].ExternalID)
	require.NotNil(t, messages[0].SentAt)
}

func TestSweepMarksChatMessageFailedOnDeliveryError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	past := time.Now().UTC().Add(-time.Minute)

	require.NoError(t, store.CreateChatMessage(ctx, &models.ChatMessage{
		ID:          "cm-bad",
		PatientID:   "p-1",
		ToNumber:    "+4915112345678",
		Body:        "hello",
		Status:      models.ChatMessageStatusScheduled,
		ScheduledAt: &past,
	}))

	chatSender := &mocks.MockChatSender{}
	chatSender.On("Send", mock.Anything, mock.Anything).
		Return("", errors.New("gateway unavailable"))

	scheduler := NewScheduler(log.WithModule("test"), store, chatSender)
	scheduler.Sweep(ctx)

	messages := store.AllChatMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, models.ChatMessageStatusFailed, messages[0].Status)
	assert.Nil(t, messages[0].SentAt)
}
