// Package task provides the create_task automation action.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/assign"
	"github.com/praxisflow/praxisflow/pkg/automation"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/template"
)

const defaultDueInDays = 1

// Action creates follow-up tasks for clinic staff. Occurrences in the future
// are persisted as scheduled tasks released later by the scheduler.
type Action struct {
	Title       string
	DueInDays   int
	AssigneeIDs []string
	Schedule    models.Schedule
	rawConfig   map[string]any

	persistence persistence.Persistence
	recorder    *automation.Recorder
	picker      *assign.Picker
}

// NewAction builds a create_task action from its configuration.
func NewAction(config map[string]any, p persistence.Persistence, recorder *automation.Recorder, picker *assign.Picker) *Action {
	title, _ := config["title"].(string)

	return &Action{
		Title:       title,
		DueInDays:   intConfig(config, "due_in_days", defaultDueInDays),
		AssigneeIDs: assigneeIDs(config),
		Schedule:    models.ScheduleFromConfig(config),
		rawConfig:   config,
		persistence: p,
		recorder:    recorder,
		picker:      picker,
	}
}

// assigneeIDs gathers candidate user IDs, preferring the list field written
// by the current editor over the legacy single-value field.
func assigneeIDs(config map[string]any) []string {
	if list, ok := config["assignee_ids"].([]any); ok && len(list) > 0 {
		ids := make([]string, 0, len(list))

		for _, v := range list {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}

		if len(ids) > 0 {
			return ids
		}
	}

	switch legacy := config["assignee_id"].(type) {
	case string:
		if legacy != "" {
			return []string{legacy}
		}
	case []any:
		ids := make([]string, 0, len(legacy))

		for _, v := range legacy {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}

		return ids
	}

	return nil
}

// Execute creates one task per scheduled occurrence, each with its own audit
// step. Zero assignee candidates means the task is created unassigned.
func (a *Action) Execute(ctx context.Context, run models.RunContext, logger *slog.Logger) error {
	logger = logger.With("module", "create_task_action")

	candidates, err := a.loadCandidates(ctx)
	if err != nil {
		// Assignment is advisory; an unassigned task is better than none.
		logger.WarnContext(ctx, "Failed to load assignee candidates, creating unassigned", "error", err)

		candidates = nil
	}

	now := time.Now().UTC()

	var lastErr error

	for _, occurrence := range a.Schedule.Occurrences(now) {
		if err := a.createTask(ctx, run, candidates, occurrence, now); err != nil {
			logger.ErrorContext(ctx, "Failed to create task", "error", err)

			a.recorder.Failed(ctx, run, models.ActionCreateTask, a.rawConfig, err)

			lastErr = err

			continue
		}
	}

	return lastErr
}

func (a *Action) loadCandidates(ctx context.Context) ([]models.User, error) {
	if len(a.AssigneeIDs) == 0 {
		return nil, nil
	}

	users, err := a.persistence.UsersByIDs(ctx, a.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.User, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, *u)
	}

	return candidates, nil
}

func (a *Action) createTask(ctx context.Context, run models.RunContext, candidates []models.User, occurrence, now time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	task := &models.Task{
		ID:           id.String(),
		Title:        template.Render(a.Title, run.TemplateData()),
		DealID:       run.Deal.ID,
		PatientID:    run.Patient.ID,
		EnrollmentID: run.EnrollmentID,
		Status:       models.TaskStatusOpen,
		DueAt:        occurrence.AddDate(0, 0, a.DueInDays),
		CreatedAt:    now,
	}

	scheduled := occurrence.After(now)
	if scheduled {
		task.Status = models.TaskStatusScheduled
		scheduledAt := occurrence
		task.ScheduledAt = &scheduledAt
	}

	assignee, err := a.picker.Pick(ctx, candidates)
	if err != nil {
		return fmt.Errorf("picking assignee: %w", err)
	}

	if assignee != nil {
		task.AssigneeID = assignee.ID
	}

	if err := a.persistence.CreateTask(ctx, task); err != nil {
		return err
	}

	result := map[string]any{
		"task_id": task.ID,
		"due_at":  task.DueAt.Format(time.RFC3339),
	}
	if task.AssigneeID != "" {
		result["assignee_id"] = task.AssigneeID
	}

	if scheduled {
		a.recorder.Scheduled(ctx, run, models.ActionCreateTask, a.rawConfig, occurrence)
	} else {
		a.recorder.Completed(ctx, run, models.ActionCreateTask, a.rawConfig, result)
	}

	return nil
}

func intConfig(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
