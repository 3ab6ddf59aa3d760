package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDealNotFound indicates the triggering deal does not exist.
	ErrDealNotFound = errors.New("deal not found")

	// ErrPatientNotFound indicates the related patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrStageNotFound indicates a pipeline stage does not exist.
	ErrStageNotFound = errors.New("stage not found")

	// ErrAutomationNotFound indicates an automation does not exist.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrEnrollmentNotFound indicates an enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrTemplateNotFound indicates a message template does not exist.
	ErrTemplateNotFound = errors.New("message template not found")

	// ErrChatMessageNotFound indicates a chat message does not exist.
	ErrChatMessageNotFound = errors.New("chat message not found")

	// ErrTaskNotFound indicates a task does not exist.
	ErrTaskNotFound = errors.New("task not found")
)

// StoreError wraps datastore errors with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g. "DealByID", "CreateEnrollment")
	ID  string // Row identifier if applicable
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with operation context.
func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDealNotFound) ||
		errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrStageNotFound) ||
		errors.Is(err, ErrAutomationNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrChatMessageNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}
