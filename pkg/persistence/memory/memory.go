// Package memory provides an in-memory persistence implementation used by
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

// Store is an in-memory persistence.Persistence. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	deals        map[string]*models.Deal
	patients     map[string]*models.Patient
	stages       map[string]*models.Stage
	services     map[string]string
	users        map[string]*models.User
	automations  map[string]*models.Automation
	enrollments  map[string]*models.Enrollment
	steps        map[string][]*models.EnrollmentStep
	tasks        map[string]*models.Task
	messages     map[string]*models.Message
	templates    map[string]*models.MessageTemplate
	chatMessages map[string]*models.ChatMessage
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		deals:        make(map[string]*models.Deal),
		patients:     make(map[string]*models.Patient),
		stages:       make(map[string]*models.Stage),
		services:     make(map[string]string),
		users:        make(map[string]*models.User),
		automations:  make(map[string]*models.Automation),
		enrollments:  make(map[string]*models.Enrollment),
		steps:        make(map[string][]*models.EnrollmentStep),
		tasks:        make(map[string]*models.Task),
		messages:     make(map[string]*models.Message),
		templates:    make(map[string]*models.MessageTemplate),
		chatMessages: make(map[string]*models.ChatMessage),
	}
}

// Seed helpers for tests and local fixtures.

func (s *Store) AddDeal(deal *models.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals[deal.ID] = deal
}

func (s *Store) AddPatient(patient *models.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = patient
}

func (s *Store) AddStage(stage *models.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage.ID] = stage
}

func (s *Store) AddService(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[id] = name
}

func (s *Store) AddUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) AddAutomation(automation *models.Automation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.automations[automation.ID] = automation
}

func (s *Store) AddMessageTemplate(template *models.MessageTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.ID] = template
}

// Entity reads.

func (s *Store) DealByID(ctx context.Context, id string) (*models.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[id]
	if !ok {
		return nil, persistence.NewStoreError("DealByID", id, persistence.ErrDealNotFound)
	}

	return deal, nil
}

func (s *Store) PatientByID(ctx context.Context, id string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patient, ok := s.patients[id]
	if !ok {
		return nil, persistence.NewStoreError("PatientByID", id, persistence.ErrPatientNotFound)
	}

	return patient, nil
}

func (s *Store) StageByID(ctx context.Context, id string) (*models.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stage, ok := s.stages[id]
	if !ok {
		return nil, persistence.NewStoreError("StageByID", id, persistence.ErrStageNotFound)
	}

	return stage, nil
}

func (s *Store) ServiceNameByID(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.services[id], nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))

	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}

	return users, nil
}

// Automations.

func (s *Store) Automations(ctx context.Context) ([]*models.Automation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	automations := make([]*models.Automation, 0, len(s.automations))
	for _, a := range s.automations {
		automations = append(automations, a)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].CreatedAt.Before(automations[j].CreatedAt)
	})

	return automations, nil
}

func (s *Store) ActiveAutomationsByTrigger(ctx context.Context, triggerType string) ([]*models.Automation, error) {
	all, err := s.Automations(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Automation, 0, len(all))

	for _, a := range all {
		if a.Active && a.TriggerType == triggerType {
			matching = append(matching, a)
		}
	}

	return matching, nil
}

// Enrollments.

func (s *Store) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}

	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}

	s.enrollments[enrollment.ID] = enrollment

	return nil
}

func (s *Store) CreateEnrollmentStep(ctx context.Context, step *models.EnrollmentStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if step.ID == "" {
		step.ID = uuid.NewString()
	}

	s.steps[step.EnrollmentID] = append(s.steps[step.EnrollmentID], step)

	return nil
}

func (s *Store) EnrollmentByID(ctx context.Context, id string) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrollment, ok := s.enrollments[id]
	if !ok {
		return nil, persistence.NewStoreError("EnrollmentByID", id, persistence.ErrEnrollmentNotFound)
	}

	return enrollment, nil
}

func (s *Store) EnrollmentsByAutomation(ctx context.Context, automationID string) ([]*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrollments := make([]*models.Enrollment, 0)

	for _, e := range s.enrollments {
		if automationID == "" || e.AutomationID == automationID {
			enrollments = append(enrollments, e)
		}
	}

	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt)
	})

	return enrollments, nil
}

func (s *Store) StepsByEnrollment(ctx context.Context, enrollmentID string) ([]*models.EnrollmentStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := make([]*models.EnrollmentStep, len(s.steps[enrollmentID]))
	copy(steps, s.steps[enrollmentID])

	return steps, nil
}

// Tasks.

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	s.tasks[task.ID] = task

	return nil
}

func (s *Store) TaskCountSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0

	for _, task := range s.tasks {
		if !task.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (s *Store) DueScheduledTasks(ctx context.Context, now time.Time) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]*models.Task, 0)

	for _, task := range s.tasks {
		if task.Status == models.TaskStatusScheduled && task.ScheduledAt != nil && !task.ScheduledAt.After(now) {
			due = append(due, task)
		}
	}

	return due, nil
}

func (s *Store) ReleaseTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return persistence.NewStoreError("ReleaseTask", id, persistence.ErrTaskNotFound)
	}

	task.Status = models.TaskStatusOpen

	return nil
}

// Messages.

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.ID] = message

	return nil
}

func (s *Store) MessageTemplateByID(ctx context.Context, id string) (*models.MessageTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	template, ok := s.templates[id]
	if !ok {
		return nil, persistence.NewStoreError("MessageTemplateByID", id, persistence.ErrTemplateNotFound)
	}

	return template, nil
}

// Chat messages.

func (s *Store) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.chatMessages[message.ID] = message

	return nil
}

func (s *Store) UpdateChatMessageStatus(ctx context.Context, id string, status models.ChatMessageStatus, externalID string, sentAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.chatMessages[id]
	if !ok {
		return persistence.NewStoreError("UpdateChatMessageStatus", id, persistence.ErrChatMessageNotFound)
	}

	message.Status = status
	message.ExternalID = externalID
	message.SentAt = sentAt

	return nil
}

func (s *Store) DueScheduledChatMessages(ctx context.Context, now time.Time) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]*models.ChatMessage, 0)

	for _, message := range s.chatMessages {
		if message.Status == models.ChatMessageStatusScheduled && message.ScheduledAt != nil && !message.ScheduledAt.After(now) {
			due = append(due, message)
		}
	}

	return due, nil
}

// Test inspection helpers. Rows created within the same run share a
// CreatedAt, so ordering ties break on ID (v7 UUIDs sort in creation order).

func (s *Store) AllTasks() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}

		return tasks[i].ID < tasks[j].ID
	})

	return tasks
}

func (s *Store) AllMessages() []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		messages = append(messages, m)
	}

	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}

		return messages[i].ID < messages[j].ID
	})

	return messages
}

func (s *Store) AllChatMessages() []*models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*models.ChatMessage, 0, len(s.chatMessages))
	for _, m := range s.chatMessages {
		messages = append(messages, m)
	}

	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}

		return messages[i].ID < messages[j].ID
	})

	return messages
}

func (s *Store) HealthCheck(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }
