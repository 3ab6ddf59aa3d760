package models

import "time"

// Enrollment is the audit record of one automation's execution against one
// event. It is created before any actions run and freezes the trigger context
// at that moment, independent of later entity mutation.
type Enrollment struct {
	ID           string         `json:"id"`
	AutomationID string         `json:"automation_id"`
	DealID       string         `json:"deal_id"`
	PatientID    string         `json:"patient_id"`
	Status       string         `json:"status"`
	Snapshot     map[string]any `json:"trigger_snapshot"`
	CreatedAt    time.Time      `json:"created_at"`
}

// EnrollmentStatusActive is the status every enrollment is created with.
const EnrollmentStatusActive = "active"

// StepStatus is the outcome of one action attempt.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusScheduled StepStatus = "scheduled"
)

// EnrollmentStep is the audit record of one action attempt within an
// enrollment. Steps are append-only and never updated after creation.
type EnrollmentStep struct {
	ID           string         `json:"id"`
	EnrollmentID string         `json:"enrollment_id"`
	StepType     string         `json:"step_type"`
	StepAction   ActionType     `json:"step_action"`
	StepConfig   map[string]any `json:"step_config,omitempty"`
	Status       StepStatus     `json:"status"`
	ExecutedAt   time.Time      `json:"executed_at"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// StepTypeAction is the step type for action attempts; the only type the
// engine writes today.
const StepTypeAction = "action"
