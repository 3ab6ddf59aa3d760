package models

// RunContext is the read-only projection an action executes against. It is
// assembled once per event and shared by every action of every matched
// automation; actions must not mutate it.
type RunContext struct {
	EnrollmentID string
	Event        StageEvent
	Deal         Deal
	Patient      Patient
	FromStage    string
	ToStage      string
}

// TemplateData projects the run context into the map the template renderer
// resolves {{dotted.path}} placeholders against.
func (rc RunContext) TemplateData() map[string]any {
	return map[string]any{
		"patient": map[string]any{
			"id":         rc.Patient.ID,
			"first_name": rc.Patient.FirstName,
			"last_name":  rc.Patient.LastName,
			"email":      rc.Patient.Email,
			"phone":      rc.Patient.Phone,
		},
		"deal": map[string]any{
			"id":       rc.Deal.ID,
			"title":    rc.Deal.Title,
			"category": rc.Deal.Category,
			"notes":    rc.Deal.Notes,
		},
		"from_stage": rc.FromStage,
		"to_stage":   rc.ToStage,
	}
}

// Snapshot freezes the trigger context for the enrollment audit record.
func (rc RunContext) Snapshot() map[string]any {
	snapshot := rc.TemplateData()
	snapshot["from_stage_id"] = rc.Event.FromStage()
	snapshot["to_stage_id"] = rc.Event.ToStageID

	return snapshot
}
