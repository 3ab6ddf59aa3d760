package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

// Recorder writes the enrollment audit trail. Step writes are best effort:
// audit failures are logged and never abort a run.
type Recorder struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewRecorder(p persistence.Persistence, logger *slog.Logger) *Recorder {
	return &Recorder{
		persistence: p,
		logger:      logger.With("module", "recorder"),
	}
}

// Enroll creates the enrollment record for one matched automation, freezing
// the trigger context before any action runs.
func (r *Recorder) Enroll(ctx context.Context, automation *models.Automation, run models.RunContext) (*models.Enrollment, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		ID:           id.String(),
		AutomationID: automation.ID,
		DealID:       run.Deal.ID,
		PatientID:    run.Patient.ID,
		Status:       models.EnrollmentStatusActive,
		Snapshot:     run.Snapshot(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.persistence.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}

	return enrollment, nil
}

// RecordStep appends one step to the audit trail. Runs whose enrollment could
// not be created carry an empty enrollment ID; their steps are dropped with a
// log line instead of violating the audit trail's parent constraint.
func (r *Recorder) RecordStep(ctx context.Context, step models.EnrollmentStep) {
	if step.EnrollmentID == "" {
		r.logger.WarnContext(ctx, "Dropping audit step without enrollment",
			"step_action", step.StepAction,
			"status", step.Status)

		return
	}

	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to generate step ID", "error", err)

			return
		}

		step.ID = id.String()
	}

	if step.StepType == "" {
		step.StepType = models.StepTypeAction
	}

	if step.ExecutedAt.IsZero() {
		step.ExecutedAt = time.Now().UTC()
	}

	if err := r.persistence.CreateEnrollmentStep(ctx, &step); err != nil {
		r.logger.ErrorContext(ctx, "Failed to record audit step",
			"enrollment_id", step.EnrollmentID,
			"step_action", step.StepAction,
			"error", err)
	}
}

// Completed records a successful action attempt.
func (r *Recorder) Completed(ctx context.Context, run models.RunContext, actionType models.ActionType, config, result map[string]any) {
	r.RecordStep(ctx, models.EnrollmentStep{
		EnrollmentID: run.EnrollmentID,
		StepAction:   actionType,
		StepConfig:   config,
		Status:       models.StepStatusCompleted,
		Result:       result,
	})
}

// Failed records an action attempt that returned an error.
func (r *Recorder) Failed(ctx context.Context, run models.RunContext, actionType models.ActionType, config map[string]any, err error) {
	r.RecordStep(ctx, models.EnrollmentStep{
		EnrollmentID: run.EnrollmentID,
		StepAction:   actionType,
		StepConfig:   config,
		Status:       models.StepStatusFailed,
		ErrorMessage: err.Error(),
	})
}

// Skipped records an action attempt that could not proceed, with the reason.
func (r *Recorder) Skipped(ctx context.Context, run models.RunContext, actionType models.ActionType, config map[string]any, reason string) {
	r.RecordStep(ctx, models.EnrollmentStep{
		EnrollmentID: run.EnrollmentID,
		StepAction:   actionType,
		StepConfig:   config,
		Status:       models.StepStatusSkipped,
		Result:       map[string]any{"reason": reason},
	})
}

// Scheduled records an occurrence deferred to a future time.
func (r *Recorder) Scheduled(ctx context.Context, run models.RunContext, actionType models.ActionType, config map[string]any, at time.Time) {
	r.RecordStep(ctx, models.EnrollmentStep{
		EnrollmentID: run.EnrollmentID,
		StepAction:   actionType,
		StepConfig:   config,
		Status:       models.StepStatusScheduled,
		Result:       map[string]any{"scheduled_at": at.UTC().Format(time.RFC3339)},
	})
}
