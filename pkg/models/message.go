package models

import "time"

// MessageStatus is the delivery state of an outbound email.
type MessageStatus string

const (
	MessageStatusQueued    MessageStatus = "queued"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusScheduled MessageStatus = "scheduled"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message is a persisted outbound email. The row is written before delivery
// is attempted; delivery failures do not revert it.
type Message struct {
	ID           string        `json:"id"`
	PatientID    string        `json:"patient_id"`
	EnrollmentID string        `json:"enrollment_id,omitempty"`
	FromAddress  string        `json:"from_address"`
	ToAddress    string        `json:"to_address"`
	Subject      string        `json:"subject"`
	HTMLBody     string        `json:"html_body"`
	ReplyAlias   string        `json:"reply_alias,omitempty"`
	Status       MessageStatus `json:"status"`
	ScheduledAt  *time.Time    `json:"scheduled_at,omitempty"`
	SentAt       *time.Time    `json:"sent_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// MessageTemplate is stored email content an automation action can link to.
type MessageTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// ChatMessageStatus is the delivery state of an outbound chat message.
type ChatMessageStatus string

const (
	ChatMessageStatusPending   ChatMessageStatus = "pending"
	ChatMessageStatusSent      ChatMessageStatus = "sent"
	ChatMessageStatusScheduled ChatMessageStatus = "scheduled"
	ChatMessageStatusFailed    ChatMessageStatus = "failed"
)

// ChatMessage is a persisted outbound chat message. Scheduled rows are picked
// up later by the scheduler; the engine itself never runs a clock.
type ChatMessage struct {
	ID           string            `json:"id"`
	PatientID    string            `json:"patient_id"`
	EnrollmentID string            `json:"enrollment_id,omitempty"`
	ToNumber     string            `json:"to_number"`
	Body         string            `json:"body"`
	Status       ChatMessageStatus `json:"status"`
	ExternalID   string            `json:"external_id,omitempty"`
	ScheduledAt  *time.Time        `json:"scheduled_at,omitempty"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
