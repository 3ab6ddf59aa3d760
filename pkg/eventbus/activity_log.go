package eventbus

import (
	"context"
	"log/slog"

	"github.com/praxisflow/praxisflow/pkg/events"
)

// ActivityLog consumes lifecycle events from the bus and writes them to the
// structured log, giving one readable feed of automation activity.
type ActivityLog struct {
	logger *slog.Logger
}

func NewActivityLog(logger *slog.Logger) *ActivityLog {
	return &ActivityLog{logger: logger.With("module", "activity")}
}

// Register attaches the log's handlers to every lifecycle event type.
func (l *ActivityLog) Register(bus EventSubscriber) error {
	handlers := map[events.EventType]EventHandler{
		events.AutomationMatchedEvent:   l.onMatched,
		events.AutomationCompletedEvent: l.onCompleted,
		events.ActionFailedEvent:        l.onActionFailed,
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return nil
}

func (l *ActivityLog) onMatched(ctx context.Context, event any) error {
	matched, ok := event.(*events.AutomationMatched)
	if !ok {
		return nil
	}

	l.logger.InfoContext(ctx, "Automation matched",
		"automation_id", matched.AutomationID,
		"enrollment_id", matched.EnrollmentID,
		"deal_id", matched.DealID,
		"patient_id", matched.PatientID)

	return nil
}

func (l *ActivityLog) onCompleted(ctx context.Context, event any) error {
	completed, ok := event.(*events.AutomationCompleted)
	if !ok {
		return nil
	}

	l.logger.InfoContext(ctx, "Automation completed",
		"automation_id", completed.AutomationID,
		"enrollment_id", completed.EnrollmentID,
		"actions_run", completed.ActionsRun,
		"duration", completed.Duration)

	return nil
}

func (l *ActivityLog) onActionFailed(ctx context.Context, event any) error {
	failed, ok := event.(*events.ActionFailed)
	if !ok {
		return nil
	}

	l.logger.WarnContext(ctx, "Action failed",
		"automation_id", failed.AutomationID,
		"enrollment_id", failed.EnrollmentID,
		"action_type", failed.ActionType,
		"error", failed.Error)

	return nil
}
