// Package web provides the HTTP surface of the automation engine: event
// submission plus read access to automations and the enrollment audit trail.
package web

import (
	"github.com/praxisflow/praxisflow/pkg/models"
)

// StageEventRequest is the request body for submitting a stage event.
type StageEventRequest struct {
	DealID      string  `json:"deal_id"                 validate:"required"`
	PatientID   string  `json:"patient_id"              validate:"required"`
	FromStageID *string `json:"from_stage_id,omitempty"`
	ToStageID   string  `json:"to_stage_id"             validate:"required"`
	Category    string  `json:"category,omitempty"`
}

// ToEvent converts the request into the engine's event model.
func (r StageEventRequest) ToEvent() models.StageEvent {
	return models.StageEvent{
		DealID:      r.DealID,
		PatientID:   r.PatientID,
		FromStageID: r.FromStageID,
		ToStageID:   r.ToStageID,
		Category:    r.Category,
	}
}

// EnrollmentResponse is an enrollment together with its ordered steps.
type EnrollmentResponse struct {
	*models.Enrollment

	Steps []*models.EnrollmentStep `json:"steps"`
}
