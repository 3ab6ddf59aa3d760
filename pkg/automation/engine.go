// Package automation contains the engine that turns stage events into
// dispatched actions: trigger matching, condition evaluation, enrollment
// bookkeeping, and the sequential action run loop.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/praxisflow/praxisflow/pkg/cache"
	"github.com/praxisflow/praxisflow/pkg/conditions"
	"github.com/praxisflow/praxisflow/pkg/eventbus"
	"github.com/praxisflow/praxisflow/pkg/events"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/otelhelper"
	"github.com/praxisflow/praxisflow/pkg/persistence"
	"github.com/praxisflow/praxisflow/pkg/protocol"
	"github.com/praxisflow/praxisflow/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunSummary is the caller-visible result of processing one stage event.
// Zero matches is a valid outcome, not an error.
type RunSummary struct {
	MatchedAutomationCount int `json:"matched_automation_count"`
	ActionsRun             int `json:"actions_run"`
}

// Engine is the orchestrator. Automations run one at a time in datastore
// order; actions within an automation run strictly in declared order. There
// is no retry and no cancellation once an event is accepted.
type Engine struct {
	persistence  persistence.Persistence
	registry     *registry.Registry
	recorder     *Recorder
	serviceNames *cache.ServiceNames
	publisher    eventbus.EventPublisher
	tracer       trace.Tracer
	logger       *slog.Logger
}

func NewEngine(
	p persistence.Persistence,
	reg *registry.Registry,
	recorder *Recorder,
	serviceNames *cache.ServiceNames,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		persistence:  p,
		registry:     reg,
		recorder:     recorder,
		serviceNames: serviceNames,
		publisher:    publisher,
		tracer:       tracer,
		logger:       logger.With("module", "engine"),
	}
}

// HandleEvent processes one stage event end to end and returns the run
// summary. Only validation and top-level lookup errors abort the request;
// failures inside the action loop are isolated per action.
func (e *Engine) HandleEvent(ctx context.Context, event models.StageEvent) (*RunSummary, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "engine.handle_event",
			attribute.String(otelhelper.DealIDKey, event.DealID),
			attribute.String(otelhelper.StageIDKey, event.ToStageID),
			attribute.String(otelhelper.TriggerTypeKey, models.TriggerDealStageChanged),
		)
		defer span.End()
	}

	deal, err := e.persistence.DealByID(ctx, event.DealID)
	if err != nil {
		return nil, err
	}

	patient, err := e.persistence.PatientByID(ctx, event.PatientID)
	if err != nil {
		return nil, err
	}

	automations, err := e.persistence.ActiveAutomationsByTrigger(ctx, models.TriggerDealStageChanged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAutomationLoad, err)
	}

	run := models.RunContext{
		Event:     event,
		Deal:      *deal,
		Patient:   *patient,
		FromStage: e.stageName(ctx, event.FromStage()),
		ToStage:   e.stageName(ctx, event.ToStageID),
	}

	serviceName, err := e.serviceNames.Lookup(ctx, deal.ServiceID)
	if err != nil {
		// Conditions on service membership still evaluate, treating the deal
		// as having no service.
		e.logger.WarnContext(ctx, "Service name lookup failed", "service_id", deal.ServiceID, "error", err)

		serviceName = ""
	}

	conditionInput := conditions.Input{
		Deal:        *deal,
		Patient:     *patient,
		ServiceName: serviceName,
	}

	summary := &RunSummary{}

	for _, a := range automations {
		if !Matches(a, event) {
			continue
		}

		if !conditions.Evaluate(a.Conditions(), conditionInput) {
			continue
		}

		summary.MatchedAutomationCount++
		summary.ActionsRun += e.runAutomation(ctx, a, run)
	}

	e.logger.InfoContext(ctx, "Stage event processed",
		"deal_id", event.DealID,
		"to_stage_id", event.ToStageID,
		"matched", summary.MatchedAutomationCount,
		"actions_run", summary.ActionsRun)

	return summary, nil
}

// runAutomation enrolls the deal and dispatches every action in order,
// returning how many actions were dispatched.
func (e *Engine) runAutomation(ctx context.Context, a *models.Automation, run models.RunContext) int {
	logger := e.logger.With("automation_id", a.ID, "deal_id", run.Deal.ID)
	started := time.Now()

	// Enrollment is best-effort observability, not a gate: a failed insert is
	// logged and the actions still run.
	enrollment, err := e.recorder.Enroll(ctx, a, run)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create enrollment", "error", err)
	} else {
		run.EnrollmentID = enrollment.ID
	}

	e.publish(ctx, a.ID, events.AutomationMatched{
		BaseEvent:    events.NewBaseEvent(events.AutomationMatchedEvent, a.ID),
		EnrollmentID: run.EnrollmentID,
		DealID:       run.Deal.ID,
		PatientID:    run.Patient.ID,
		Event:        run.Event,
	})

	actionsRun := 0

	for _, item := range a.Actions() {
		actionsRun++

		action, err := e.registry.CreateAction(ctx, item.Type, item.Config)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to create action", "action_type", item.Type, "error", err)

			// The action never ran, so nothing else records its step.
			e.recorder.Failed(ctx, run, item.Type, item.Config, err)

			continue
		}

		if err := e.executeAction(ctx, action, item.Type, run, logger); err != nil {
			logger.ErrorContext(ctx, "Action failed", "action_type", item.Type, "error", err)

			e.publish(ctx, a.ID, events.ActionFailed{
				BaseEvent:    events.NewBaseEvent(events.ActionFailedEvent, a.ID),
				EnrollmentID: run.EnrollmentID,
				DealID:       run.Deal.ID,
				ActionType:   item.Type,
				Error:        err.Error(),
			})
		}
	}

	e.publish(ctx, a.ID, events.AutomationCompleted{
		BaseEvent:    events.NewBaseEvent(events.AutomationCompletedEvent, a.ID),
		EnrollmentID: run.EnrollmentID,
		DealID:       run.Deal.ID,
		ActionsRun:   actionsRun,
		Duration:     time.Since(started),
	})

	return actionsRun
}

// executeAction runs one action, wrapped in its own span when tracing is on.
func (e *Engine) executeAction(ctx context.Context, action protocol.Action, actionType models.ActionType, run models.RunContext, logger *slog.Logger) error {
	if e.tracer == nil {
		return action.Execute(ctx, run, logger)
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run_action",
		attribute.String(otelhelper.ActionTypeKey, string(actionType)),
		attribute.String(otelhelper.EnrollmentIDKey, run.EnrollmentID),
	)
	defer span.End()

	err := action.Execute(ctx, run, logger)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

// stageName resolves a stage ID to its display name, best effort.
func (e *Engine) stageName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}

	stage, err := e.persistence.StageByID(ctx, id)
	if err != nil {
		e.logger.WarnContext(ctx, "Stage lookup failed", "stage_id", id, "error", err)

		return ""
	}

	return stage.Name
}

// publish forwards a lifecycle event, swallowing failures; notification is
// never allowed to break a run.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(),
			"error", err)
	}
}

func validateEvent(event models.StageEvent) error {
	if event.DealID == "" {
		return invalidEventError("deal_id")
	}

	if event.PatientID == "" {
		return invalidEventError("patient_id")
	}

	if event.ToStageID == "" {
		return invalidEventError("to_stage_id")
	}

	return nil
}
