// Package events defines event types for automation lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/models"
)

type EventType string

// Topic is the stream automation lifecycle events are published to.
const Topic = "praxisflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AutomationMatchedEvent   EventType = "automation.matched"
	AutomationCompletedEvent EventType = "automation.completed"
	ActionFailedEvent        EventType = "action.failed"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	AutomationID string         `json:"automation_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AutomationMatched is published when a stage event matches an automation's
// trigger and conditions, before any action runs.
type AutomationMatched struct {
	BaseEvent

	EnrollmentID string            `json:"enrollment_id"`
	DealID       string            `json:"deal_id"`
	PatientID    string            `json:"patient_id"`
	Event        models.StageEvent `json:"event"`
}

func (a AutomationMatched) GetType() EventType {
	return AutomationMatchedEvent
}

// AutomationCompleted is published after every action of a matched automation
// has been attempted.
type AutomationCompleted struct {
	BaseEvent

	EnrollmentID string        `json:"enrollment_id"`
	DealID       string        `json:"deal_id"`
	ActionsRun   int           `json:"actions_run"`
	Duration     time.Duration `json:"duration"`
}

func (a AutomationCompleted) GetType() EventType {
	return AutomationCompletedEvent
}

// ActionFailed is published when a dispatched action returns an error. The
// run continues with the next action.
type ActionFailed struct {
	BaseEvent

	EnrollmentID string            `json:"enrollment_id"`
	DealID       string            `json:"deal_id"`
	ActionType   models.ActionType `json:"action_type"`
	Error        string            `json:"error"`
}

func (a ActionFailed) GetType() EventType {
	return ActionFailedEvent
}

func NewBaseEvent(eventType EventType, automationID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automationID,
		Metadata:     make(map[string]any),
	}
}
