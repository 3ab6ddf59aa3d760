// Package models defines the core domain models for the clinic automation engine.
package models

// StageEvent represents a deal moving from one pipeline stage to another, or,
// when FromStageID is nil, a deal created directly into ToStageID.
//
// Events are constructed fresh per invocation and never persisted by the
// engine itself.
type StageEvent struct {
	DealID      string  `json:"deal_id"`
	PatientID   string  `json:"patient_id"`
	FromStageID *string `json:"from_stage_id,omitempty"`
	ToStageID   string  `json:"to_stage_id"`
	Category    string  `json:"category,omitempty"`
}

// IsCreation reports whether the event describes a deal created directly into
// its stage rather than moved there.
func (e StageEvent) IsCreation() bool {
	return e.FromStageID == nil || *e.FromStageID == ""
}

// FromStage returns the originating stage ID, or "" for creation events.
func (e StageEvent) FromStage() string {
	if e.FromStageID == nil {
		return ""
	}

	return *e.FromStageID
}
