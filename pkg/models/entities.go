package models

import "time"

// Deal is a patient case moving through a pipeline. Read-only to the
// automation engine; owned by the intake and scheduling modules.
type Deal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes"`
	ServiceID string    `json:"service_id"`
	StageID   string    `json:"stage_id"`
	PatientID string    `json:"patient_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Patient is the person a deal relates to.
type Patient struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Stage is a pipeline stage a deal can occupy.
type Stage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a clinic staff member who can be assigned tasks.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Task is a follow-up item created by the create_task action.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	DealID       string     `json:"deal_id"`
	PatientID    string     `json:"patient_id"`
	AssigneeID   string     `json:"assignee_id,omitempty"`
	EnrollmentID string     `json:"enrollment_id,omitempty"`
	Status       TaskStatus `json:"status"`
	DueAt        time.Time  `json:"due_at"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusScheduled TaskStatus = "scheduled" // held until ScheduledAt, released by the scheduler
	TaskStatusDone      TaskStatus = "done"
)
